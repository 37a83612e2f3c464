// Package notify tells managers about accepted reservations over Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coworking/internal/events"
	"coworking/internal/models"
	"coworking/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DigestSource provides the reservations listed in the daily digest.
type DigestSource interface {
	Today() time.Time
	ReservationsBetween(ctx context.Context, from, to time.Time) ([]service.ReservationView, error)
}

type ManagerNotifier struct {
	sender  TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewManagerNotifier(sender TelegramSender, chatIDs []int64, logger *zerolog.Logger) *ManagerNotifier {
	l := logger.With().Str("component", "notify").Logger()
	return &ManagerNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		logger:  &l,
	}
}

// HandleEvent is subscribed to reservation.accepted.
func (n *ManagerNotifier) HandleEvent(e events.Event) error {
	var payload models.ReservationAccepted
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return n.broadcast(FormatAcceptedMessage(payload))
}

func (n *ManagerNotifier) broadcast(text string) error {
	var errs []error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to notify manager")
			errs = append(errs, fmt.Errorf("send to %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func FormatAcceptedMessage(p models.ReservationAccepted) string {
	r := p.Reservation
	var sb strings.Builder
	fmt.Fprintf(&sb, "New reservation #%d\n", r.ID)
	fmt.Fprintf(&sb, "Type: %s", p.TypeLabel)
	if p.EquipmentClass != "" {
		fmt.Fprintf(&sb, " (%s, #%d)", p.EquipmentClass, r.InstanceID)
	}
	sb.WriteString("\n")
	w := r.Window()
	if w.Start.Equal(w.End) {
		fmt.Fprintf(&sb, "Date: %s", w.Start.Format("02.01.2006"))
	} else {
		fmt.Fprintf(&sb, "Dates: %s - %s", w.Start.Format("02.01.2006"), w.End.Format("02.01.2006"))
	}
	fmt.Fprintf(&sb, " (%d %s)\n", r.DurationValue, r.DurationUnit)
	fmt.Fprintf(&sb, "User: %s", r.UserID)
	return sb.String()
}

// StartDailyDigest sends the list of reservations occupying the current day
// every day at the given hour.
func (n *ManagerNotifier) StartDailyDigest(ctx context.Context, src DigestSource, hour int) {
	if n == nil || n.sender == nil || len(n.chatIDs) == 0 {
		return
	}

	go func() {
		timer := time.NewTimer(timeUntilNextHour(time.Now(), hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if err := n.SendDigest(ctx, src); err != nil {
					n.logger.Error().Err(err).Msg("Daily digest failed")
				}
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (n *ManagerNotifier) SendDigest(ctx context.Context, src DigestSource) error {
	today := src.Today()
	views, err := src.ReservationsBetween(ctx, today, today)
	if err != nil {
		return err
	}
	return n.broadcast(FormatDigest(today, views))
}

func FormatDigest(date time.Time, views []service.ReservationView) string {
	if len(views) == 0 {
		return fmt.Sprintf("%s: no reservations", date.Format("02.01.2006"))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d reservation(s)", date.Format("02.01.2006"), len(views))
	for _, v := range views {
		fmt.Fprintf(&sb, "\n- %s", v.TypeLabel)
		if v.EquipmentClass != "" {
			fmt.Fprintf(&sb, " (%s)", v.EquipmentClass)
		}
		fmt.Fprintf(&sb, ", %s", v.UserID)
		if v.StartDate != v.EndDate {
			fmt.Fprintf(&sb, ", until %s", v.EndDate)
		}
	}
	return sb.String()
}

func timeUntilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
