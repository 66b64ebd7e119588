package service

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/channel-metrics-exporter/internal/models"
)

// csvHeader is the fixed column order of the export
var csvHeader = []string{"user_id", "email", "display_name", "real_name", "role", "message_count", "joined_at"}

// EncodeRows serializes rows as CSV with the fixed schema. The header row
// is always present; absent values are empty fields, never placeholders.
func EncodeRows(rows []models.ExportRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.UserID,
			row.Email,
			row.DisplayName,
			row.RealName,
			string(row.Role),
			strconv.Itoa(row.MessageCount),
			row.JoinedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
