package httpHandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"recorder-server/db/dbtest"
	"recorder-server/entities"
	"recorder-server/repositories"
	"recorder-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const missingID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	procs  *dbtest.Procedures
}

func newTestAPI(t *testing.T, development bool) *testAPI {
	t.Helper()

	procs := dbtest.NewProcedures()
	uc := usecases.NewDeviceUseCase(
		repositories.NewDevicePgRepository(procs),
		repositories.NewDeviceSettingsPgRepository(procs),
		repositories.NewRecordingPgRepository(procs),
		repositories.NewSpeakerPgRepository(procs),
	)
	devices := NewDeviceHandler(uc)
	recordings := NewRecordingHandler(uc)
	speakers := NewSpeakerHandler(uc)

	r := gin.New()
	r.Use(ErrorFunnel(zaptest.NewLogger(t).Sugar(), development))

	r.GET("/devices", devices.ListDevices())
	r.GET("/devices/settings", devices.ListSettings)
	r.GET("/devices/settings/:id", devices.GetSettings)
	r.POST("/devices", devices.CreateDevice())
	r.GET("/devices/:id", devices.GetDevice)
	r.PATCH("/devices/:id", devices.UpdateDevice())
	r.DELETE("/devices/:id", devices.DeleteDevice)
	r.GET("/devices/:id/settings", devices.GetDeviceSettings)
	r.PUT("/devices/:id/settings", devices.UpdateDeviceSettings())
	r.GET("/devices/:id/recordings", devices.GetDeviceRecordings)
	r.GET("/devices/:id/speakers", devices.GetDeviceSpeakers)

	r.GET("/recordings", recordings.ListRecordings())
	r.POST("/recordings", recordings.CreateRecording())
	r.GET("/recordings/:id", recordings.GetRecording)
	r.PATCH("/recordings/:id", recordings.UpdateRecording())
	r.DELETE("/recordings/:id", recordings.DeleteRecording)

	r.GET("/speakers", speakers.ListSpeakers())
	r.POST("/speakers", speakers.CreateSpeaker())
	r.GET("/speakers/:id", speakers.GetSpeaker)
	r.GET("/speakers/:id/recordings", speakers.GetSpeakerRecordings)
	r.PATCH("/speakers/:id", speakers.UpdateSpeaker())
	r.PUT("/speakers/:id", speakers.UpdateSpeaker())
	r.DELETE("/speakers/:id", speakers.DeleteSpeaker)

	return &testAPI{router: r, procs: procs}
}

func (a *testAPI) do(method, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) createDevice(t *testing.T, form url.Values) entities.Device {
	t.Helper()
	w := a.do(http.MethodPost, "/devices", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var device entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
	return device
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	msg, _ := body["message"].(string)
	return msg
}

func TestInvalidUUIDPathParametersAreRejected(t *testing.T) {
	api := newTestAPI(t, false)

	badIDs := []string{
		"123",
		"not-a-uuid",
		"0f8fad5bd9cb469fa16570867728950e",
		"0f8fad5b-d9cb-069f-a165-70867728950e", // version 0
		"1ec9414c-232a-6b00-b3c8-9e6bdeced846", // version 6
		"0f8fad5b-d9cb-469f-c165-70867728950e", // variant c
		"0f8fad5b-d9cb-469f-a165-70867728950", // too short
		"zf8fad5b-d9cb-469f-a165-70867728950e",
	}
	routes := []struct{ method, path string }{
		{http.MethodGet, "/devices/%s"},
		{http.MethodGet, "/devices/%s/settings"},
		{http.MethodGet, "/devices/%s/recordings"},
		{http.MethodGet, "/devices/%s/speakers"},
		{http.MethodDelete, "/devices/%s"},
		{http.MethodGet, "/devices/settings/%s"},
		{http.MethodGet, "/recordings/%s"},
		{http.MethodDelete, "/recordings/%s"},
		{http.MethodGet, "/speakers/%s"},
		{http.MethodGet, "/speakers/%s/recordings"},
		{http.MethodDelete, "/speakers/%s"},
	}

	for _, route := range routes {
		for _, id := range badIDs {
			target := fmt.Sprintf(route.path, url.PathEscape(id))
			t.Run(route.method+" "+target, func(t *testing.T) {
				w := api.do(route.method, target, nil)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	}
	assert.Empty(t, api.procs.Calls)
}

func TestUUIDMatchingIsCaseInsensitive(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}})

	w := api.do(http.MethodGet, "/devices/"+strings.ToUpper(device.DeviceID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, device.DeviceID, got.DeviceID)
}

func TestGetMissingDeviceIsNotFound(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(http.MethodGet, "/devices/"+missingID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No device found with id: "+missingID, message(t, w))

	w = api.do(http.MethodGet, "/devices/settings/"+missingID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No device settings found with id: "+missingID, message(t, w))
}

func TestCreateDeviceHandleRules(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		status int
		msg    string
	}{
		{name: "fifty characters", form: url.Values{"handle": {strings.Repeat("h", 50)}}, status: http.StatusCreated},
		{name: "fifty one characters", form: url.Values{"handle": {strings.Repeat("h", 51)}}, status: http.StatusBadRequest, msg: "handle must be at most 50 characters"},
		{name: "fifty multibyte characters", form: url.Values{"handle": {strings.Repeat("é", 50)}}, status: http.StatusCreated},
		{name: "whitespace only", form: url.Values{"handle": {"   "}}, status: http.StatusBadRequest, msg: "handle must not be blank"},
		{name: "empty", form: url.Values{"handle": {""}}, status: http.StatusBadRequest, msg: "handle must not be blank"},
		{name: "missing", form: url.Values{"location": {"hall"}}, status: http.StatusBadRequest, msg: "Bad request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false)
			w := api.do(http.MethodPost, "/devices", tt.form)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, message(t, w))
			}
		})
	}
}

func TestCreateDeviceSetsLocationHeader(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(http.MethodPost, "/devices", url.Values{
		"handle":      {"porch"},
		"description": {"front door mic"},
		"ipAddress":   {"10.0.0.9"},
		"settings":    {`{"gain":3}`},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var device entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
	assert.Equal(t, device.DeviceID, w.Header().Get("Location"))
	assert.True(t, ValidUUID(device.DeviceID))
	assert.Equal(t, "front door mic", *device.Description)
	assert.Nil(t, device.Location)
	require.NotNil(t, device.Settings)
	assert.EqualValues(t, 3, device.Settings.Properties["gain"])

	// reading it back returns what was stored
	w = api.do(http.MethodGet, "/devices/"+device.DeviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, device.Handle, stored.Handle)
	assert.Equal(t, device.Description, stored.Description)
	assert.Equal(t, device.IPAddress, stored.IPAddress)
	assert.True(t, device.CreatedDate.Equal(stored.CreatedDate))
	assert.Equal(t, device.Settings.SettingsID, stored.Settings.SettingsID)
}

func TestCreateDeviceRejectsBadSettings(t *testing.T) {
	for _, settings := range []string{"not-json", `{"gain":`, `[1,2]`, `"text"`, ``} {
		api := newTestAPI(t, false)
		w := api.do(http.MethodPost, "/devices", url.Values{"handle": {"porch"}, "settings": {settings}})
		assert.Equal(t, http.StatusBadRequest, w.Code, settings)
		assert.Empty(t, api.procs.Calls, settings)
	}
}

func TestJSONBlobsKeepTheirNumbers(t *testing.T) {
	api := newTestAPI(t, false)
	blob := `{"ratio":1e400,"serial":9007199254740993}`

	w := api.do(http.MethodPost, "/devices", url.Values{"handle": {"porch"}, "settings": {blob}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"properties":`+blob)
	var device entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))

	w = api.do(http.MethodGet, "/devices/"+device.DeviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"properties":`+blob)

	w = api.do(http.MethodPut, "/devices/"+device.DeviceID+"/settings", url.Values{"settings": {`{"serial":18446744073709551617}`}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"serial":18446744073709551617`)

	w = api.do(http.MethodPost, "/recordings", url.Values{"deviceId": {device.DeviceID}, "data": {blob}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recording entities.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recording))

	w = api.do(http.MethodGet, "/recordings/"+recording.RecordingID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":`+blob)

	w = api.do(http.MethodPost, "/devices", url.Values{"handle": {"garage"}, "settings": {`{"gain":1} {"gain":2}`}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "settings must be valid JSON", message(t, w))
}

func TestUpdateDeviceSettings(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}, "settings": {`{"gain":1}`}})

	w := api.do(http.MethodPut, "/devices/"+device.DeviceID+"/settings", url.Values{"settings": {"not-json"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "settings must be valid JSON", message(t, w))

	w = api.do(http.MethodPut, "/devices/"+device.DeviceID+"/settings", url.Values{"settings": {`{"gain":3}`}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated entities.DeviceSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.NotEqual(t, device.Settings.SettingsID, updated.SettingsID)
	assert.False(t, device.Settings.CreatedDate.Equal(updated.CreatedDate))

	w = api.do(http.MethodGet, "/devices/"+device.DeviceID, nil)
	var stored entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, updated.SettingsID, stored.Settings.SettingsID)
	assert.EqualValues(t, 3, stored.Settings.Properties["gain"])

	w = api.do(http.MethodGet, "/devices/settings/"+device.Settings.SettingsID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/devices/"+device.DeviceID+"/settings", nil)
	var history []entities.DeviceSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 2)
	assert.Equal(t, updated.SettingsID, history[0].SettingsID)

	api.createDevice(t, url.Values{"handle": {"garage"}, "settings": {`{"gain":9}`}})
	w = api.do(http.MethodGet, "/devices/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []entities.DeviceSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 3)
}

func TestUpdateSettingsOfMissingDeviceIsNotFound(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(http.MethodPut, "/devices/"+missingID+"/settings", url.Values{"settings": {`{"gain":3}`}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No device found with id: "+missingID, message(t, w))
}

func TestUpdateSettingsWithoutSettingsField(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(http.MethodPut, "/devices/"+missingID+"/settings", url.Values{"gain": {"3"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Bad request", message(t, w))
}

func TestUpdateAndDeleteMissingEntitiesAreNotFound(t *testing.T) {
	api := newTestAPI(t, false)

	tests := []struct {
		method, path string
		form         url.Values
		entity       string
	}{
		{http.MethodPatch, "/devices/" + missingID, url.Values{"location": {"attic"}}, "device"},
		{http.MethodDelete, "/devices/" + missingID, nil, "device"},
		{http.MethodPatch, "/recordings/" + missingID, url.Values{"data": {`{}`}}, "recording"},
		{http.MethodDelete, "/recordings/" + missingID, nil, "recording"},
		{http.MethodPatch, "/speakers/" + missingID, url.Values{"data": {`{}`}}, "speaker"},
		{http.MethodPut, "/speakers/" + missingID, url.Values{"data": {`{}`}}, "speaker"},
		{http.MethodDelete, "/speakers/" + missingID, nil, "speaker"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.form)
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
			assert.Equal(t, "No "+tt.entity+" found with id: "+missingID, message(t, w))
		})
	}
}

func TestPatchDevice(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}, "location": {"front"}})

	w := api.do(http.MethodPatch, "/devices/"+device.DeviceID, url.Values{"handle": {" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPatch, "/devices/"+device.DeviceID, url.Values{"unknown": {"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Bad request", message(t, w))

	w = api.do(http.MethodPatch, "/devices/"+device.DeviceID, url.Values{"description": {"garden mic"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/devices/"+device.DeviceID, nil)
	var stored entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, "porch", stored.Handle)
	assert.Equal(t, "garden mic", *stored.Description)
	assert.Equal(t, "front", *stored.Location)
}

func TestDeleteDevice(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}})

	w := api.do(http.MethodDelete, "/devices/"+device.DeviceID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = api.do(http.MethodDelete, "/devices/"+device.DeviceID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDevicesDispatch(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		status    int
		procedure string
	}{
		{name: "by handle", query: "?handle=porch", status: http.StatusOK, procedure: "get_devices_by_handle"},
		{name: "blank handle", query: "?handle=", status: http.StatusBadRequest},
		{name: "long handle", query: "?handle=" + strings.Repeat("x", 51), status: http.StatusBadRequest},
		{name: "after only", query: "?afterDate=2024-01-01", status: http.StatusOK, procedure: "get_devices_by_date_range"},
		{name: "both bounds", query: "?afterDate=2024-01-01T00:00:00Z&beforeDate=2025-01-01", status: http.StatusOK, procedure: "get_devices_by_date_range"},
		{name: "bad date", query: "?beforeDate=yesterday", status: http.StatusBadRequest},
		{name: "impossible date", query: "?afterDate=2024-02-30", status: http.StatusBadRequest},
		{name: "handle with dates", query: "?handle=porch&afterDate=2024-01-01", status: http.StatusBadRequest},
		{name: "all", query: "", status: http.StatusOK, procedure: "get_devices"},
		{name: "unknown keys ignored", query: "?page=2", status: http.StatusOK, procedure: "get_devices"},
		{name: "handle with unknown key", query: "?handle=porch&page=2", status: http.StatusOK, procedure: "get_devices_by_handle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false)
			w := api.do(http.MethodGet, "/devices"+tt.query, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.procedure == "" {
				assert.Empty(t, api.procs.Calls)
				return
			}
			assert.Equal(t, []string{tt.procedure}, api.procs.Calls)
		})
	}
}

func TestListDevicesByHandleReturnsMatchesOnly(t *testing.T) {
	api := newTestAPI(t, false)
	api.createDevice(t, url.Values{"handle": {"porch"}})
	api.createDevice(t, url.Values{"handle": {"garage"}})

	w := api.do(http.MethodGet, "/devices?handle=porch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var devices []entities.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "porch", devices[0].Handle)

	w = api.do(http.MethodGet, "/devices?handle=nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRecordingLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}, "settings": {`{"gain":1}`}})

	w := api.do(http.MethodPost, "/speakers", url.Values{"deviceId": {device.DeviceID}, "data": {`{"name":"Ada"}`}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var speaker entities.Speaker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &speaker))
	assert.Equal(t, speaker.SpeakerID, w.Header().Get("Location"))

	w = api.do(http.MethodPost, "/recordings", url.Values{
		"deviceId":      {device.DeviceID},
		"recordingTime": {"2024-06-01T12:30:00Z"},
		"data":          {`{"duration":4.5,"tags":["a"]}`},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recording entities.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recording))
	require.NotNil(t, recording.SettingsID)
	assert.Equal(t, device.Settings.SettingsID, *recording.SettingsID)
	assert.Equal(t, 12, recording.RecordingTime.Hour())

	w = api.do(http.MethodPatch, "/recordings/"+recording.RecordingID, url.Values{"speakerId": {speaker.SpeakerID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/recordings/"+recording.RecordingID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored entities.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.NotNil(t, stored.SpeakerID)
	assert.Equal(t, speaker.SpeakerID, *stored.SpeakerID)
	assert.JSONEq(t, `{"duration":4.5,"tags":["a"]}`, string(mustJSON(t, stored.Data)))

	for _, target := range []string{
		"/speakers/" + speaker.SpeakerID + "/recordings",
		"/recordings?speakerId=" + speaker.SpeakerID,
		"/recordings?deviceId=" + device.DeviceID,
		"/devices/" + device.DeviceID + "/recordings",
	} {
		w = api.do(http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, w.Code, target)
		var list []entities.Recording
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 1, target)
	}

	w = api.do(http.MethodDelete, "/recordings/"+recording.RecordingID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/recordings/"+recording.RecordingID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRecordingValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{name: "no device", form: url.Values{"data": {`{}`}}, msg: "Bad request"},
		{name: "bad device", form: url.Values{"deviceId": {"42"}}, msg: "deviceId must be a valid UUID"},
		{name: "bad speaker", form: url.Values{"deviceId": {missingID}, "speakerId": {"42"}}, msg: "speakerId must be a valid UUID"},
		{name: "bad settings", form: url.Values{"deviceId": {missingID}, "settingsId": {"42"}}, msg: "settingsId must be a valid UUID"},
		{name: "bad time", form: url.Values{"deviceId": {missingID}, "recordingTime": {"noon"}}, msg: "recordingTime must be an ISO-8601 date"},
		{name: "bad data", form: url.Values{"deviceId": {missingID}, "data": {"{'a':1}"}}, msg: "data must be valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false)
			w := api.do(http.MethodPost, "/recordings", tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, message(t, w))
			assert.Empty(t, api.procs.Calls)
		})
	}
}

func TestListRecordingsDispatch(t *testing.T) {
	tests := []struct {
		query     string
		status    int
		procedure string
	}{
		{query: "?deviceId=" + missingID, status: http.StatusOK, procedure: "get_recordings_by_device"},
		{query: "?speakerId=" + missingID, status: http.StatusOK, procedure: "get_recordings_by_speaker"},
		{query: "?afterDate=2024-01-01", status: http.StatusOK, procedure: "get_recordings_by_date_range"},
		{query: "", status: http.StatusOK, procedure: "get_recordings"},
		{query: "?deviceId=bad", status: http.StatusBadRequest},
		{query: "?deviceId=" + missingID + "&speakerId=" + missingID, status: http.StatusBadRequest},
		{query: "?speakerId=" + missingID + "&beforeDate=2024-01-01", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			api := newTestAPI(t, false)
			w := api.do(http.MethodGet, "/recordings"+tt.query, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.procedure != "" {
				assert.Equal(t, []string{tt.procedure}, api.procs.Calls)
			}
		})
	}
}

func TestSpeakerLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	device := api.createDevice(t, url.Values{"handle": {"porch"}})

	w := api.do(http.MethodPost, "/speakers", url.Values{"deviceId": {device.DeviceID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var speaker entities.Speaker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &speaker))
	assert.Nil(t, speaker.Data)

	w = api.do(http.MethodPatch, "/speakers/"+speaker.SpeakerID, url.Values{"data": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPatch, "/speakers/"+speaker.SpeakerID, url.Values{"name": {"Ada"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Bad request", message(t, w))

	w = api.do(http.MethodPatch, "/speakers/"+speaker.SpeakerID, url.Values{"data": {`{"name":"Ada"}`}})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/speakers?deviceId="+device.DeviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var speakers []entities.Speaker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &speakers))
	require.Len(t, speakers, 1)
	assert.Equal(t, "Ada", speakers[0].Data["name"])

	w = api.do(http.MethodGet, "/devices/"+device.DeviceID+"/speakers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/speakers?deviceId="+device.DeviceID+"&afterDate=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, "/speakers/"+speaker.SpeakerID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestErrorFunnelHidesInternalCauseOutsideDevelopment(t *testing.T) {
	api := newTestAPI(t, false)
	api.procs.Err = errors.New("password authentication failed for user recorder")

	w := api.do(http.MethodGet, "/devices", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, w.Body.String())
}

func TestErrorFunnelShowsCauseInDevelopment(t *testing.T) {
	api := newTestAPI(t, true)
	api.procs.Err = errors.New("password authentication failed for user recorder")

	w := api.do(http.MethodGet, "/devices", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "password authentication failed")
	assert.Contains(t, body["cause"], "get_devices")
}

func TestErrorFunnelRendersHTMLForBrowsers(t *testing.T) {
	api := newTestAPI(t, false)
	accept := "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	w := api.do(http.MethodGet, "/devices/"+missingID, nil, "Accept", accept)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "404 Not Found")
	assert.Contains(t, w.Body.String(), "No device found with id: "+missingID)

	// writes always answer in JSON
	w = api.do(http.MethodDelete, "/devices/"+missingID, nil, "Accept", accept)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = api.do(http.MethodGet, "/devices/"+missingID, nil, "Accept", "application/json")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestErrorFunnelEscapesHTML(t *testing.T) {
	r := gin.New()
	r.Use(ErrorFunnel(zaptest.NewLogger(t).Sugar(), false))
	r.GET("/x", func(c *gin.Context) { abortWith(c, BadRequest("<script>alert(1)</script>")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>")
}

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("delete_device: %w", repositories.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, classify(wrapped).Status)
	assert.Equal(t, "Not Found", classify(wrapped).Message)

	typed := fmt.Errorf("update_recording: %w", &repositories.NotFoundError{Entity: "recording", ID: "r1"})
	assert.Equal(t, http.StatusNotFound, classify(typed).Status)
	assert.Equal(t, "No recording found with id: r1", classify(typed).Message)
	assert.Equal(t, http.StatusBadRequest, classify(fmt.Errorf("outer: %w", BadRequest("x"))).Status)
	assert.Equal(t, http.StatusInternalServerError, classify(errors.New("boom")).Status)

	public := classify(errors.New("boom")).public()
	assert.Equal(t, "Internal Server Error", public.Message)
	assert.Nil(t, public.Cause)
}

func TestChainRunsFirstMatchingCandidate(t *testing.T) {
	var ran []string
	candidate := func(name string, match bool) Candidate {
		return Candidate{
			Name:   name,
			Match:  func(*gin.Context) bool { return match },
			Handle: func(c *gin.Context) { ran = append(ran, name); c.Status(http.StatusOK) },
		}
	}

	r := gin.New()
	r.Use(ErrorFunnel(zaptest.NewLogger(t).Sugar(), false))
	r.GET("/first", Chain(candidate("a", false), candidate("b", true), candidate("c", true)))
	r.GET("/none", Chain(candidate("a", false)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/first", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b"}, ran)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/none", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Bad request"}`, w.Body.String())
	assert.Equal(t, []string{"b"}, ran)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
