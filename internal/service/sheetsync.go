package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"license-key-server/internal/config"
	"license-key-server/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSyncService mirrors generated licenses into a Google Sheet, one row
// per key: key, active system, ip limit, synced at.
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetSyncService returns nil when syncing is disabled.
func NewSheetSyncService(ctx context.Context, cfg config.SheetsConfig) (*SheetSyncService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheets credentials: %w", err)
	}
	return newSheetSyncService(ctx, cfg.SpreadsheetID, cfg.SheetName, option.WithCredentials(creds))
}

func newSheetSyncService(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetSyncService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService: %w", err)
	}
	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// SyncLicense updates the row holding license.LicenseKey or appends a new one.
func (s *SheetSyncService) SyncLicense(ctx context.Context, license model.LicenseResponse) error {
	if s == nil {
		return nil
	}

	keyResp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("%s!A2:A", s.sheetName)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet keys: %w", err)
	}

	rowIndex := 0
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == license.LicenseKey {
			rowIndex = i + 2 // data starts at A2
			break
		}
	}

	values := &sheets.ValueRange{Values: [][]interface{}{{
		license.LicenseKey,
		license.ActiveSystem,
		strconv.Itoa(license.IPLimit),
		time.Now().UTC().Format(time.RFC3339),
	}}}

	if rowIndex > 0 {
		_, err = s.service.Spreadsheets.Values.
			Update(s.spreadsheetID, fmt.Sprintf("%s!A%d:D%d", s.sheetName, rowIndex, rowIndex), values).
			ValueInputOption("RAW").Context(ctx).Do()
	} else {
		_, err = s.service.Spreadsheets.Values.
			Append(s.spreadsheetID, s.sheetName+"!A2:D", values).
			ValueInputOption("RAW").Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("write sheet row: %w", err)
	}
	return nil
}
