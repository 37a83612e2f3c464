// Package google mirrors accepted reservations into a Google Sheet.
package google

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"coworking/internal/events"
	"coworking/internal/models"
	"github.com/rs/zerolog"
	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var header = []interface{}{
	"ID", "Type", "Label", "Instance", "Equipment", "User",
	"Start", "End", "Unit", "Duration", "Status", "Created",
}

type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger

	mu       sync.RWMutex
	rowCache map[int64]int
}

// NewSheetsService authenticates with a service account key file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := oauthgoogle.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return newSheetsService(ctx, spreadsheetID, sheetName, logger, option.WithCredentials(creds))
}

func newSheetsService(ctx context.Context, spreadsheetID, sheetName string, logger *zerolog.Logger, opts ...option.ClientOption) (*SheetsService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	l := logger.With().Str("component", "sheets").Logger()
	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        &l,
		rowCache:      make(map[int64]int),
	}, nil
}

// EnsureHeader writes the column titles into the first row.
func (s *SheetsService) EnsureHeader(ctx context.Context) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// AppendReservation adds one row and remembers where it landed.
func (s *SheetsService) AppendReservation(ctx context.Context, p models.ReservationAccepted) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{reservationRowValues(p)}}
	resp, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A:L", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append reservation %d: %w", p.Reservation.ID, err)
	}

	if resp.Updates != nil {
		if row, ok := parseRowNumber(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(p.Reservation.ID, row)
		}
	}
	s.logger.Debug().Int64("reservation_id", p.Reservation.ID).Msg("Reservation appended to sheet")
	return nil
}

// HandleEvent is subscribed to reservation.accepted.
func (s *SheetsService) HandleEvent(e events.Event) error {
	var payload models.ReservationAccepted
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return s.AppendReservation(context.Background(), payload)
}

func reservationRowValues(p models.ReservationAccepted) []interface{} {
	r := p.Reservation
	var instance interface{} = ""
	if r.InstanceID != 0 {
		instance = r.InstanceID
	}
	return []interface{}{
		r.ID,
		r.ResourceType,
		p.TypeLabel,
		instance,
		p.EquipmentClass,
		r.UserID,
		models.FormatDate(r.StartDate),
		models.FormatDate(r.EndDate()),
		string(r.DurationUnit),
		r.DurationValue,
		r.Status,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

var rowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// parseRowNumber extracts the first row of an A1 range such as "Sheet!A5:L5".
func parseRowNumber(a1 string) (int, bool) {
	m := rowPattern.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return row, true
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[id] = row
}

// RowOf returns the sheet row a reservation was appended to, if known.
func (s *SheetsService) RowOf(id int64) (int, bool) {
	return s.getCachedRow(id)
}

func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[int64]int)
}
