package smtpintake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/core"
	"github.com/mailmind/ai-gateway/internal/utils"
)

// Intake accepts messages over SMTP, runs them through the
// orchestrator, stamps the unified verdict into message headers and
// relays the message to the downstream MTA.
type Intake struct {
	orchestrator *core.Orchestrator
	textProc     *utils.TextProcessor
	logger       *zap.Logger
	listenAddr   string
	relayAddr    string
	relayPort    int
	maxBodySize  int
	server       *smtp.Server
}

// NewIntake creates a new SMTP intake front-end
func NewIntake(
	orchestrator *core.Orchestrator,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	listenAddr string,
	relayAddr string,
	relayPort int,
	maxBodySize int,
) *Intake {
	return &Intake{
		orchestrator: orchestrator,
		textProc:     textProc,
		logger:       logger,
		listenAddr:   listenAddr,
		relayAddr:    relayAddr,
		relayPort:    relayPort,
		maxBodySize:  maxBodySize,
	}
}

// Start starts the SMTP intake server
func (i *Intake) Start() error {
	i.server = smtp.NewServer(&intakeBackend{intake: i})

	i.server.Addr = i.listenAddr
	i.server.Domain = "localhost"
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	i.server.MaxRecipients = 50
	i.server.AllowInsecureAuth = true

	i.logger.Info("SMTP intake starting", zap.String("address", i.listenAddr))

	go func() {
		if err := i.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				i.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP intake server
func (i *Intake) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}

// relay forwards the stamped message to the downstream MTA
func (i *Intake) relay(sender string, recipients []string, messageData []byte) error {
	relayAddr := fmt.Sprintf("%s:%d", i.relayAddr, i.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			i.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(messageData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		i.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// intakeBackend implements the go-smtp Backend interface
type intakeBackend struct {
	intake *Intake
}

// NewSession creates a new SMTP session
func (b *intakeBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &intakeSession{
		intake:     b.intake,
		recipients: make([]string, 0),
	}, nil
}

// intakeSession implements the go-smtp Session interface
type intakeSession struct {
	intake     *Intake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *intakeSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the intake)
func (s *intakeSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *intakeSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *intakeSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data runs the message through the gateway pipeline and relays it
func (s *intakeSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.intake.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		s.intake.logger.Error("Failed to read message body", zap.Error(err))
		return err
	}

	recipient := ""
	if len(s.recipients) > 0 {
		recipient = s.recipients[0]
	}

	req := &core.ProcessingRequest{
		Sender:    s.sender,
		Recipient: recipient,
		Subject:   msg.Header.Get("Subject"),
		Body:      s.intake.textProc.ProcessText(string(body), s.intake.maxBodySize),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := s.intake.orchestrator.Process(ctx, req)
	if err != nil {
		// A message the pipeline cannot validate is still delivered; the
		// verdict headers record why processing was skipped.
		s.intake.logger.Warn("Skipping pipeline for message",
			zap.Error(err),
			zap.String("sender", s.sender))
		result = nil
	}

	stamped := s.stampHeaders(msg, rawData, result)

	if err := s.intake.relay(s.sender, s.recipients, stamped); err != nil {
		s.intake.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	if result != nil {
		s.intake.logger.Info("Message processed",
			zap.String("sender", s.sender),
			zap.String("correlation_id", result.Overall.CorrelationID),
			zap.Bool("success", result.Overall.Success),
			zap.Float64("spam_score", result.CoreProcessing.SecurityScan.SpamScore))
	}

	return nil
}

// stampHeaders prepends the gateway verdict headers and preserves the
// original headers and MIME body untouched
func (s *intakeSession) stampHeaders(msg *mail.Message, rawData []byte, result *core.UnifiedResult) []byte {
	var out bytes.Buffer

	if result != nil {
		fmt.Fprintf(&out, "X-AI-Processed: %t\r\n", result.CoreProcessing.Processed)
		fmt.Fprintf(&out, "X-AI-Spam-Score: %.4f\r\n", result.CoreProcessing.SecurityScan.SpamScore)
		fmt.Fprintf(&out, "X-AI-Threat-Level: %s\r\n", result.CoreProcessing.SecurityScan.ThreatLevel)
		fmt.Fprintf(&out, "X-AI-Correlation-Id: %s\r\n", result.Overall.CorrelationID)
		if summary := result.AIEnhancements.Summary; summary != "" {
			fmt.Fprintf(&out, "X-AI-Summary: %s\r\n", sanitizeHeader(summary))
		}
	} else {
		fmt.Fprintf(&out, "X-AI-Processed: false\r\n")
	}

	for key, values := range msg.Header {
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&out, "\r\n")

	// Reattach the original body bytes so MIME parts and attachments
	// survive unchanged
	bodyStart := bytes.Index(rawData, []byte("\r\n\r\n"))
	if bodyStart != -1 {
		out.Write(rawData[bodyStart+4:])
	} else if bodyStart = bytes.Index(rawData, []byte("\n\n")); bodyStart != -1 {
		out.Write(rawData[bodyStart+2:])
	}

	return out.Bytes()
}

// sanitizeHeader keeps a generated summary on a single header line
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	if len(value) > 256 {
		value = value[:256]
	}
	return value
}

// Logout handles SMTP logout
func (s *intakeSession) Logout() error {
	return nil
}
