// Package dbtest provides an in-memory stand-in for the stored procedures
// behind db.Gateway, for tests that need the whole data path without a
// PostgreSQL server.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"recorder-server/db"

	"github.com/google/uuid"
)

type device struct {
	id, handle                       string
	description, location, ipAddress any
	created                          time.Time
}

type settings struct {
	id, deviceID string
	properties   any
	created      time.Time
}

type recording struct {
	id, deviceID        string
	speakerID, settings any
	recorded            time.Time
	data                any
}

type speaker struct {
	id, deviceID string
	data         any
	created      time.Time
}

// Procedures answers the procedure contract from in-memory tables. The
// clock advances by one millisecond per stored row, so every version gets
// a distinct timestamp.
type Procedures struct {
	mu         sync.Mutex
	now        time.Time
	devices    []*device
	settings   []*settings
	recordings []*recording
	speakers   []*speaker

	// Err, when set, fails every call.
	Err   error
	Calls []string
}

func NewProcedures() *Procedures {
	return &Procedures{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (p *Procedures) tick() time.Time {
	p.now = p.now.Add(time.Millisecond)
	return p.now
}

func (p *Procedures) Call(ctx context.Context, procedure string, params ...any) ([]db.Row, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, procedure)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, fmt.Errorf("%s: %w", procedure, p.Err)
	}

	arg := func(i int) any {
		if i < len(params) {
			return params[i]
		}
		return nil
	}
	str := func(i int) string {
		s, _ := arg(i).(string)
		return s
	}

	switch procedure {
	case "get_device_by_id":
		if d := p.device(str(0)); d != nil {
			return []db.Row{p.deviceRow(d, true)}, nil
		}
		return nil, nil
	case "get_devices":
		return p.deviceRows(func(*device) bool { return true }), nil
	case "get_devices_by_handle":
		return p.deviceRows(func(d *device) bool { return d.handle == str(0) }), nil
	case "get_devices_by_date_range":
		return p.deviceRows(func(d *device) bool { return inRange(d.created, arg(0), arg(1)) }), nil
	case "insert_device":
		d := &device{id: uuid.NewString(), handle: str(0), description: arg(1), location: arg(2), ipAddress: arg(3), created: p.tick()}
		p.devices = append(p.devices, d)
		return []db.Row{{"device_id": d.id, "created_date": d.created}}, nil
	case "update_device":
		d := p.device(str(0))
		if d == nil {
			return affected(0), nil
		}
		if arg(1) != nil {
			d.handle = str(1)
		}
		keep(&d.description, arg(2))
		keep(&d.location, arg(3))
		keep(&d.ipAddress, arg(4))
		return affected(1), nil
	case "delete_device":
		for i, d := range p.devices {
			if d.id == str(0) {
				p.devices = append(p.devices[:i], p.devices[i+1:]...)
				return affected(1), nil
			}
		}
		return affected(0), nil

	case "get_device_settings_by_id":
		for _, s := range p.settings {
			if s.id == str(0) {
				return []db.Row{settingsRow(s)}, nil
			}
		}
		return nil, nil
	case "get_device_settings":
		rows := make([]db.Row, 0, len(p.settings))
		for _, s := range p.settings {
			rows = append(rows, settingsRow(s))
		}
		return rows, nil
	case "get_device_settings_by_device":
		rows := []db.Row{}
		for i := len(p.settings) - 1; i >= 0; i-- {
			if p.settings[i].deviceID == str(0) {
				rows = append(rows, settingsRow(p.settings[i]))
			}
		}
		return rows, nil
	case "get_current_device_settings":
		if s := p.current(str(0)); s != nil {
			return []db.Row{settingsRow(s)}, nil
		}
		return nil, nil
	case "insert_device_settings", "update_device_settings":
		if p.device(str(0)) == nil {
			if procedure == "update_device_settings" {
				return nil, nil
			}
			return nil, fmt.Errorf("%s: foreign key violation on device_id", procedure)
		}
		s := &settings{id: uuid.NewString(), deviceID: str(0), properties: arg(1), created: p.tick()}
		p.settings = append(p.settings, s)
		return []db.Row{{"settings_id": s.id, "created_date": s.created}}, nil

	case "get_recording_by_id":
		return p.recordingRows(func(r *recording) bool { return r.id == str(0) }), nil
	case "get_recordings":
		return p.recordingRows(func(*recording) bool { return true }), nil
	case "get_recordings_by_date_range":
		return p.recordingRows(func(r *recording) bool { return inRange(r.recorded, arg(0), arg(1)) }), nil
	case "get_recordings_by_device":
		return p.recordingRows(func(r *recording) bool { return r.deviceID == str(0) }), nil
	case "get_recordings_by_speaker":
		return p.recordingRows(func(r *recording) bool { return r.speakerID == arg(0) }), nil
	case "insert_recording":
		if p.device(str(0)) == nil {
			return nil, fmt.Errorf("%s: foreign key violation on device_id", procedure)
		}
		r := &recording{id: uuid.NewString(), deviceID: str(0), speakerID: arg(1), settings: arg(2), data: arg(4)}
		if t, ok := arg(3).(time.Time); ok {
			r.recorded = t
		} else {
			r.recorded = p.tick()
		}
		p.recordings = append(p.recordings, r)
		return []db.Row{{"recording_id": r.id, "recording_time": r.recorded}}, nil
	case "update_recording":
		for _, r := range p.recordings {
			if r.id == str(0) {
				keep(&r.speakerID, arg(1))
				keep(&r.data, arg(2))
				return affected(1), nil
			}
		}
		return affected(0), nil
	case "delete_recording":
		for i, r := range p.recordings {
			if r.id == str(0) {
				p.recordings = append(p.recordings[:i], p.recordings[i+1:]...)
				return affected(1), nil
			}
		}
		return affected(0), nil

	case "get_speaker_by_id":
		return p.speakerRows(func(s *speaker) bool { return s.id == str(0) }), nil
	case "get_speakers":
		return p.speakerRows(func(*speaker) bool { return true }), nil
	case "get_speakers_by_date_range":
		return p.speakerRows(func(s *speaker) bool { return inRange(s.created, arg(0), arg(1)) }), nil
	case "get_speakers_by_device":
		return p.speakerRows(func(s *speaker) bool { return s.deviceID == str(0) }), nil
	case "insert_speaker":
		if p.device(str(0)) == nil {
			return nil, fmt.Errorf("%s: foreign key violation on device_id", procedure)
		}
		s := &speaker{id: uuid.NewString(), deviceID: str(0), data: arg(1), created: p.tick()}
		p.speakers = append(p.speakers, s)
		return []db.Row{{"speaker_id": s.id, "created_date": s.created}}, nil
	case "update_speaker":
		for _, s := range p.speakers {
			if s.id == str(0) {
				keep(&s.data, arg(1))
				return affected(1), nil
			}
		}
		return affected(0), nil
	case "delete_speaker":
		for i, s := range p.speakers {
			if s.id == str(0) {
				p.speakers = append(p.speakers[:i], p.speakers[i+1:]...)
				return affected(1), nil
			}
		}
		return affected(0), nil
	}

	return nil, fmt.Errorf("function %s does not exist", procedure)
}

func (p *Procedures) device(id string) *device {
	for _, d := range p.devices {
		if d.id == id {
			return d
		}
	}
	return nil
}

func (p *Procedures) current(deviceID string) *settings {
	var latest *settings
	for _, s := range p.settings {
		if s.deviceID == deviceID && (latest == nil || !s.created.Before(latest.created)) {
			latest = s
		}
	}
	return latest
}

func (p *Procedures) deviceRow(d *device, withSettings bool) db.Row {
	row := db.Row{
		"device_id":    d.id,
		"handle":       d.handle,
		"description":  d.description,
		"location":     d.location,
		"ip_address":   d.ipAddress,
		"created_date": d.created,
	}
	if !withSettings {
		return row
	}
	row["settings_id"] = nil
	if s := p.current(d.id); s != nil {
		row["settings_id"] = s.id
		row["settings_properties"] = s.properties
		row["settings_created_date"] = s.created
	}
	return row
}

func (p *Procedures) deviceRows(keep func(*device) bool) []db.Row {
	rows := []db.Row{}
	for _, d := range p.devices {
		if keep(d) {
			rows = append(rows, p.deviceRow(d, false))
		}
	}
	return rows
}

func settingsRow(s *settings) db.Row {
	return db.Row{
		"settings_id":  s.id,
		"device_id":    s.deviceID,
		"properties":   s.properties,
		"created_date": s.created,
	}
}

func (p *Procedures) recordingRows(keep func(*recording) bool) []db.Row {
	rows := []db.Row{}
	for _, r := range p.recordings {
		if keep(r) {
			rows = append(rows, db.Row{
				"recording_id":   r.id,
				"device_id":      r.deviceID,
				"speaker_id":     r.speakerID,
				"settings_id":    r.settings,
				"recording_time": r.recorded,
				"data":           r.data,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i]["recording_time"].(time.Time).Before(rows[j]["recording_time"].(time.Time))
	})
	return rows
}

func (p *Procedures) speakerRows(keep func(*speaker) bool) []db.Row {
	rows := []db.Row{}
	for _, s := range p.speakers {
		if keep(s) {
			rows = append(rows, db.Row{
				"speaker_id":   s.id,
				"device_id":    s.deviceID,
				"data":         s.data,
				"created_date": s.created,
			})
		}
	}
	return rows
}

// keep overwrites dst unless the procedure received NULL for it.
func keep(dst *any, v any) {
	if v != nil {
		*dst = v
	}
}

func affected(n int64) []db.Row {
	return []db.Row{{"affected_rows": n}}
}

func inRange(t time.Time, after, before any) bool {
	if a, ok := after.(time.Time); ok && t.Before(a) {
		return false
	}
	if b, ok := before.(time.Time); ok && t.After(b) {
		return false
	}
	return true
}
