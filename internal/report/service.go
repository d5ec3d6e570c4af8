package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/signintech/gopdf"

	"headdowell/internal/conversation"
)

// DefaultFontPaths are tried in order until one loads. DejaVuSans covers
// the bullet glyph used in summaries.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

var errNoFont = errors.New("no usable font")

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// Service delivers session summaries to a Telegram chat as a text message
// followed by a PDF attachment.
type Service struct {
	tgClient  TelegramClient
	chatID    int64
	fontPaths []string
	now       func() time.Time
}

func NewService(tg TelegramClient, chatID int64, fontPaths []string) *Service {
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	return &Service{
		tgClient:  tg,
		chatID:    chatID,
		fontPaths: fontPaths,
		now:       time.Now,
	}
}

// SendSummary implements conversation.ReportService. Summaries without
// confirmed symptoms are not sent. A missing font only skips the PDF.
func (s *Service) SendSummary(ctx context.Context, sessionID uuid.UUID, sum conversation.Summary) error {
	if len(sum.Groups) == 0 {
		return nil
	}
	logger := log.With().Str("session_id", sessionID.String()).Logger()

	if err := s.tgClient.SendMessage(ctx, s.chatID, FormatText(sessionID, sum, s.now())); err != nil {
		return fmt.Errorf("failed to send summary message: %w", err)
	}

	pdf, err := s.BuildPDF(sessionID, sum)
	if errors.Is(err, errNoFont) {
		logger.Warn().Strs("font_paths", s.fontPaths).Msg("No font available, PDF report skipped")
		return nil
	}
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("summary_%s.pdf", sessionID.String())
	if err := s.tgClient.SendDocument(ctx, s.chatID, pdf, fileName); err != nil {
		return fmt.Errorf("failed to send summary document: %w", err)
	}
	logger.Info().Int("disorders", len(sum.Groups)).Msg("Summary report sent")
	return nil
}

// FormatText renders the summary as plain text for a chat message.
func FormatText(sessionID uuid.UUID, sum conversation.Summary, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HeadDoWell session summary\nSession: %s\nDate: %s\n\n", sessionID, at.Format("02.01.2006 15:04"))
	for _, g := range sum.Groups {
		fmt.Fprintf(&b, "%s: %s\n", g.Disorder, strings.Join(g.Symptoms, ", "))
	}
	if len(sum.Therapies) > 0 {
		labels := make([]string, 0, len(sum.Therapies))
		for _, t := range sum.Therapies {
			labels = append(labels, t.Label)
		}
		fmt.Fprintf(&b, "\nSuggested approaches: %s\n", strings.Join(labels, ", "))
	}
	if len(sum.Coping) > 0 {
		fmt.Fprintf(&b, "Coping strategies: %s\n", strings.Join(sum.Coping, "; "))
	}
	b.WriteString("\n" + conversation.Disclaimer)
	return b.String()
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", errNoFont, lastErr)
}

// BuildPDF renders the summary as a single A4 page.
func (s *Service) BuildPDF(sessionID uuid.UUID, sum conversation.Summary) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}

	line := func(size float64, text string, gap float64) error {
		if err := pdf.SetFont("DejaVu", "", size); err != nil {
			return err
		}
		lines, err := pdf.SplitText(text, 500)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := pdf.Cell(nil, l); err != nil {
				return err
			}
			pdf.Br(size + 2)
		}
		pdf.Br(gap)
		return nil
	}

	if err := line(20, "HeadDoWell session summary", 10); err != nil {
		return nil, err
	}
	if err := line(11, fmt.Sprintf("Session: %s", sessionID), 0); err != nil {
		return nil, err
	}
	if err := line(11, fmt.Sprintf("Date: %s", s.now().Format("02.01.2006 15:04")), 15); err != nil {
		return nil, err
	}

	for _, g := range sum.Groups {
		if err := line(14, g.Disorder+"-related experiences", 2); err != nil {
			return nil, err
		}
		for _, name := range g.Symptoms {
			if err := line(11, "• "+name, 0); err != nil {
				return nil, err
			}
		}
		pdf.Br(10)
	}

	if len(sum.Therapies) > 0 {
		if err := line(14, "Approaches that might be helpful", 2); err != nil {
			return nil, err
		}
		for _, t := range sum.Therapies {
			if err := line(11, "• "+t.Label, 0); err != nil {
				return nil, err
			}
		}
		pdf.Br(10)
	}

	if len(sum.Coping) > 0 {
		if err := line(14, "Strategies to try", 2); err != nil {
			return nil, err
		}
		for _, tip := range sum.Coping {
			if err := line(11, "• "+tip, 0); err != nil {
				return nil, err
			}
		}
		pdf.Br(10)
	}

	if err := line(9, conversation.Disclaimer, 0); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
