package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/dftlog/internal/export"
)

func (s *fieldService) Export(ctx context.Context, w io.Writer, f export.Format) (n int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"format": string(f)}
	defer func() { observe(ctx, s.observer, "export", startedAt, fields, err) }()

	rep := s.report(startedAt)
	fields["records"] = len(rep.Records)

	switch f {
	case export.FormatJSON:
		err = export.WriteJSON(w, rep.Records)
	case export.FormatCSV:
		err = export.WriteCSV(w, rep.Records)
	case export.FormatXLSX, export.FormatPDF:
		var data []byte
		if f == export.FormatXLSX {
			data, err = export.BuildXLSX(rep)
		} else {
			data, err = export.BuildPDF(rep)
		}
		if err == nil {
			_, err = w.Write(data)
		}
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return 0, err
	}
	return len(rep.Records), nil
}

// report copies what the exporters need out of the locked machine.
func (s *fieldService) report(now time.Time) export.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.machine
	ev := m.Evaluator()
	ws := m.Workspace()
	return export.Report{
		Summary: export.Summary{
			SiteName:      ws.Session.SiteName,
			Operator:      ws.Session.Operator,
			Instruments:   append([]string(nil), ws.Session.SelectedInstruments...),
			TotalPoints:   len(ws.Points),
			FullyMeasured: ev.FullyMeasuredCount(),
			Records:       len(ws.Records),
			Unsynced:      ev.UnsyncedCount(),
			GeneratedAt:   now,
		},
		Records:    append(ws.Records[:0:0], ws.Records...),
		Thresholds: ws.Thresholds,
	}
}
