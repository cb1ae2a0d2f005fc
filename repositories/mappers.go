package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"recorder-server/db"
	"recorder-server/entities"

	"gorm.io/datatypes"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func mapDevice(row db.Row) (*entities.Device, error) {
	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}

	device := &entities.Device{
		DeviceID:    stringColumn(row, "device_id"),
		Handle:      stringColumn(row, "handle"),
		Description: optionalString(row, "description"),
		Location:    optionalString(row, "location"),
		IPAddress:   optionalString(row, "ip_address"),
		CreatedDate: created,
	}

	// device reads may carry the current settings version alongside
	if settingsID := optionalString(row, "settings_id"); settingsID != nil {
		settingsCreated, err := timeColumn(row, "settings_created_date")
		if err != nil {
			return nil, err
		}
		properties, err := jsonColumn(row, "settings_properties")
		if err != nil {
			return nil, err
		}
		device.Settings = &entities.DeviceSettings{
			SettingsID:  *settingsID,
			DeviceID:    device.DeviceID,
			CreatedDate: settingsCreated,
			Properties:  properties,
		}
	}

	return device, nil
}

func mapSettings(row db.Row) (*entities.DeviceSettings, error) {
	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}
	properties, err := jsonColumn(row, "properties")
	if err != nil {
		return nil, err
	}
	return &entities.DeviceSettings{
		SettingsID:  stringColumn(row, "settings_id"),
		DeviceID:    stringColumn(row, "device_id"),
		CreatedDate: created,
		Properties:  properties,
	}, nil
}

func mapRecording(row db.Row) (*entities.Recording, error) {
	recorded, err := timeColumn(row, "recording_time")
	if err != nil {
		return nil, err
	}
	data, err := jsonColumn(row, "data")
	if err != nil {
		return nil, err
	}
	return &entities.Recording{
		RecordingID:   stringColumn(row, "recording_id"),
		DeviceID:      stringColumn(row, "device_id"),
		SpeakerID:     optionalString(row, "speaker_id"),
		SettingsID:    optionalString(row, "settings_id"),
		RecordingTime: recorded,
		Data:          data,
	}, nil
}

func mapSpeaker(row db.Row) (*entities.Speaker, error) {
	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}
	data, err := jsonColumn(row, "data")
	if err != nil {
		return nil, err
	}
	return &entities.Speaker{
		SpeakerID:   stringColumn(row, "speaker_id"),
		DeviceID:    stringColumn(row, "device_id"),
		CreatedDate: created,
		Data:        data,
	}, nil
}

// mapAll maps every row, stopping at the first failure.
func mapAll[T any](rows []db.Row, mapper func(db.Row) (*T, error)) ([]T, error) {
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := mapper(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, nil
}

// mapFirst maps the first row, or returns nil when there is none.
func mapFirst[T any](rows []db.Row, mapper func(db.Row) (*T, error)) (*T, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	return mapper(rows[0])
}

// affectedRows reads the count reported by an update or delete procedure.
func affectedRows(rows []db.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["affected_rows"].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, fmt.Errorf("affected_rows: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("affected_rows: unexpected type %T", v)
	}
}

func stringColumn(row db.Row, column string) string {
	if s := optionalString(row, column); s != nil {
		return *s
	}
	return ""
}

func optionalString(row db.Row, column string) *string {
	switch v := row[column].(type) {
	case nil:
		return nil
	case string:
		return &v
	case []byte:
		s := string(v)
		return &s
	case fmt.Stringer:
		s := v.String()
		return &s
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func timeColumn(row db.Row, column string) (time.Time, error) {
	switch v := row[column].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		return parseTime(column, v)
	case []byte:
		return parseTime(column, string(v))
	default:
		return time.Time{}, fmt.Errorf("%s: unexpected type %T", column, v)
	}
}

func parseTime(column, value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: cannot parse %q as a timestamp", column, value)
}

// jsonColumn parses a JSON text column. An absent value stays nil; the
// store is trusted, so malformed content is reported rather than masked.
func jsonColumn(row db.Row, column string) (datatypes.JSONMap, error) {
	var raw []byte
	switch v := row[column].(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case map[string]any:
		return datatypes.JSONMap(v), nil
	default:
		return nil, fmt.Errorf("%s: unexpected type %T", column, v)
	}

	v, err := DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", column, err)
	}
	switch v := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return datatypes.JSONMap(v), nil
	default:
		return nil, fmt.Errorf("%s: expected a JSON object, got %T", column, v)
	}
}

// DecodeJSON decodes exactly one JSON value. Numbers stay json.Number so
// blobs serialise back with the digits they came in with.
func DecodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// encodeJSON serialises a blob for a procedure parameter; nil stays NULL.
func encodeJSON(m datatypes.JSONMap) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
