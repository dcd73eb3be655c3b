package sheets

import (
	"context"
	"fmt"
	"time"

	"opsboard/pkg/breaker"
	"opsboard/pkg/gapi"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetClient implements ValuesAPI over the Sheets v4 REST service.
type SheetClient struct {
	service *sheets.Service
	breaker *breaker.Breaker
}

func NewSheetClient(ctx context.Context, opts ...option.ClientOption) (*SheetClient, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return &SheetClient{
		service: srv,
		breaker: gapi.NewBreaker("sheets", 5, 30*time.Second),
	}, nil
}

func (s *SheetClient) GetValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	var resp *sheets.ValueRange
	err := gapi.Call(ctx, s.breaker, "sheets", "values.get", func() error {
		var err error
		resp, err = s.service.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *SheetClient) BatchUpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error {
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	return gapi.Call(ctx, s.breaker, "sheets", "values.batchUpdate", func() error {
		_, err := s.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
}

func (s *SheetClient) SheetProperties(ctx context.Context, spreadsheetID string) ([]*sheets.SheetProperties, error) {
	var ss *sheets.Spreadsheet
	err := gapi.Call(ctx, s.breaker, "sheets", "spreadsheets.get", func() error {
		var err error
		ss, err = s.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	props := make([]*sheets.SheetProperties, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			props = append(props, sh.Properties)
		}
	}
	return props, nil
}
