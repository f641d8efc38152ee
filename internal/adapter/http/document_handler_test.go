package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"procurement-backend/internal/adapter/repository/mysql"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/testutil/dbtest"
	"procurement-backend/internal/usecase/budget"
	"procurement-backend/internal/usecase/loa"
	"procurement-backend/internal/usecase/reason"
	"procurement-backend/internal/usecase/workflow"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

type testServer struct {
	e    *echo.Echo
	db   *gorm.DB
	logs *test.Hook
}

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb := dbtest.Open(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	reads := mysql.Repos(gdb)
	uc := workflow.NewUsecase(mysql.NewGormUoW(gdb), reads,
		workflow.WithLogger(log),
		workflow.WithClock(func() time.Time { return fixedNow }),
	)
	e := newEchoWithValidator()
	Register(e, Handlers{
		Health:    NewHandler(nil),
		Documents: NewDocumentHandler(uc, log),
		LOA:       NewLOAHandler(loa.NewResolver(reads.Chains), log),
		Budgets:   NewBudgetHandler(budget.NewUsecase(reads.Budgets), log),
		Reasons:   NewReasonHandler(reason.NewUsecase(reads.Reasons), log),
	})
	return &testServer{e: e, db: gdb, logs: hook}
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *stdhttp.Request
	if body != nil {
		req = httptest.NewRequest(method, path, mustJSON(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "raw=%s", rec.Body.String())
	return v
}

type docBody struct {
	ReferenceNo      string  `json:"reference_no"`
	Type             string  `json:"type"`
	PurchasingID     string  `json:"purchasing_id"`
	FinalStatus      int     `json:"final_status"`
	NextAction       string  `json:"next_action"`
	NextActionUserID *string `json:"next_action_user_id"`
	IsDraft          bool    `json:"is_draft"`
	CanAct           bool    `json:"can_act"`
	Viewer           *struct {
		Role  string `json:"role"`
		Order int    `json:"order"`
	} `json:"viewer"`
}

type decisionBody struct {
	ReferenceNo      string  `json:"reference_no"`
	Slot             string  `json:"slot"`
	Status           int     `json:"status"`
	FinalStatus      int     `json:"final_status"`
	NextActionUserID *string `json:"next_action_user_id"`
	Downstream       *struct {
		ReferenceNo      string  `json:"reference_no"`
		Type             string  `json:"type"`
		NextActionUserID *string `json:"next_action_user_id"`
		Created          bool    `json:"created"`
	} `json:"downstream"`
}

func TestDocumentFlow_RequisitionCascadesToCanvass(t *testing.T) {
	s := newTestServer(t)
	dbtest.SeedBand(t, s.db, dbtest.Band{Type: document.TypeRequisition, Min: "0", Reviewer1: "R1", Approver1: "A1"})
	dbtest.SeedBand(t, s.db, dbtest.Band{Type: document.TypeCanvass, Min: "0", Approver1: "C1"})

	rec := s.do(t, stdhttp.MethodPost, "/api/v1/documents", "U-REQ", map[string]any{
		"type": "requisition", "amount": "1500.00", "remarks": "laptops",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	created := decode[docBody](t, rec)
	assert.Equal(t, "REQ-20240115-001", created.ReferenceNo)
	assert.Regexp(t, regexp.MustCompile(`^[a-f0-9]{32}$`), created.PurchasingID)
	require.NotNil(t, created.NextActionUserID)
	assert.Equal(t, "R1", *created.NextActionUserID)
	assert.Equal(t, "review", created.NextAction)

	ref := "/api/v1/documents/" + created.ReferenceNo

	// approver before reviewer
	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "A1", map[string]any{"decision": "approve"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "R1", map[string]any{"decision": "approve"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	d := decode[decisionBody](t, rec)
	assert.Equal(t, "reviewer1", d.Slot)
	assert.Equal(t, 0, d.FinalStatus)
	assert.Equal(t, "A1", *d.NextActionUserID)

	inbox := decode[struct {
		Documents []docBody `json:"documents"`
	}](t, s.do(t, stdhttp.MethodGet, "/api/v1/inbox", "A1", nil))
	require.Len(t, inbox.Documents, 1)
	assert.Equal(t, created.ReferenceNo, inbox.Documents[0].ReferenceNo)

	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "A1", map[string]any{"decision": "approve", "amount": "1500.00"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	d = decode[decisionBody](t, rec)
	assert.Equal(t, 1, d.FinalStatus)
	assert.Nil(t, d.NextActionUserID)
	require.NotNil(t, d.Downstream)
	assert.Equal(t, "CNV-20240115-001", d.Downstream.ReferenceNo)
	assert.Equal(t, "canvass", d.Downstream.Type)
	assert.True(t, d.Downstream.Created)
	assert.Equal(t, "C1", *d.Downstream.NextActionUserID)

	// stale repeat
	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "A1", map[string]any{"decision": "approve"})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "decision already recorded")

	// outsider on a closed document
	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "X", map[string]any{"decision": "approve"})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already finalized")

	got := decode[docBody](t, s.do(t, stdhttp.MethodGet, ref, "A1", nil))
	assert.Equal(t, 1, got.FinalStatus)
	assert.False(t, got.CanAct)
	require.NotNil(t, got.Viewer)
	assert.Equal(t, "approver", got.Viewer.Role)
	assert.Equal(t, created.PurchasingID, got.PurchasingID)

	hist := decode[struct {
		Actions []struct {
			Kind    string `json:"kind"`
			ActorID string `json:"actor_id"`
		} `json:"actions"`
	}](t, s.do(t, stdhttp.MethodGet, ref+"/history", "", nil))
	require.Len(t, hist.Actions, 3)
	assert.Equal(t, "created", hist.Actions[0].Kind)
	assert.Equal(t, "approved", hist.Actions[2].Kind)
	assert.Equal(t, "A1", hist.Actions[2].ActorID)
}

func TestDocumentFlow_DraftThenSubmit(t *testing.T) {
	s := newTestServer(t)
	dbtest.SeedBand(t, s.db, dbtest.Band{Type: document.TypeCanvass, Min: "0", Approver1: "A1"})

	rec := s.do(t, stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{
		"type": "canvass", "amount": 10, "draft": true,
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	draft := decode[docBody](t, rec)
	assert.True(t, draft.IsDraft)
	assert.Nil(t, draft.NextActionUserID)

	ref := "/api/v1/documents/" + draft.ReferenceNo
	rec = s.do(t, stdhttp.MethodPost, ref+"/decision", "A1", map[string]any{"decision": "approve"})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)

	rec = s.do(t, stdhttp.MethodPost, ref+"/submit", "someone-else", nil)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = s.do(t, stdhttp.MethodPost, ref+"/submit", "U1", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[docBody](t, rec)
	assert.False(t, submitted.IsDraft)
	assert.Equal(t, "A1", *submitted.NextActionUserID)

	rec = s.do(t, stdhttp.MethodPost, ref+"/submit", "U1", nil)
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
}

func TestDocumentHandlers_RequestErrors(t *testing.T) {
	s := newTestServer(t)
	dbtest.SeedBand(t, s.db, dbtest.Band{Type: document.TypeCanvass, Min: "0", Max: "1000", Approver1: "A1"})

	tests := []struct {
		name     string
		method   string
		path     string
		user     string
		body     any
		wantCode int
		wantBody string
	}{
		{"missing user", stdhttp.MethodPost, "/api/v1/documents", "", map[string]any{"type": "canvass", "amount": "1"}, stdhttp.StatusBadRequest, "missing Ax-User-Id"},
		{"unknown type", stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "invoice", "amount": "1"}, stdhttp.StatusUnprocessableEntity, "known document type"},
		{"three decimals", stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "canvass", "amount": "1.005"}, stdhttp.StatusUnprocessableEntity, "at most 2 decimal places"},
		{"no band for amount", stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "canvass", "amount": "5000"}, stdhttp.StatusNotFound, "no approval chain configured"},
		{"bad purchasing id", stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "canvass", "amount": "1", "purchasing_id": "nope"}, stdhttp.StatusUnprocessableEntity, "32-char lowercase hex"},
		{"unknown purchasing", stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "canvass", "amount": "1", "purchasing_id": "0123456789abcdef0123456789abcdef"}, stdhttp.StatusNotFound, "not found"},
		{"malformed reference", stdhttp.MethodGet, "/api/v1/documents/nope", "", nil, stdhttp.StatusUnprocessableEntity, "PREFIX-YYYYMMDD-NNN"},
		{"unknown reference", stdhttp.MethodGet, "/api/v1/documents/CNV-20240115-999", "", nil, stdhttp.StatusNotFound, "not found"},
		{"decline without reason", stdhttp.MethodPost, "/api/v1/documents/CNV-20240115-999/decision", "A1", map[string]any{"decision": "decline"}, stdhttp.StatusUnprocessableEntity, "reason_id"},
		{"bad decision", stdhttp.MethodPost, "/api/v1/documents/CNV-20240115-999/decision", "A1", map[string]any{"decision": "maybe"}, stdhttp.StatusUnprocessableEntity, "approve decline"},
		{"inbox without user", stdhttp.MethodGet, "/api/v1/inbox", "", nil, stdhttp.StatusBadRequest, "missing Ax-User-Id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestDocumentHandlers_DeclineWithInactiveReason(t *testing.T) {
	s := newTestServer(t)
	dbtest.SeedBand(t, s.db, dbtest.Band{Type: document.TypeCanvass, Min: "0", Approver1: "A1"})
	retired := dbtest.SeedReason(t, s.db, "retired", false)
	active := dbtest.SeedReason(t, s.db, "over budget", true)

	created := decode[docBody](t, s.do(t, stdhttp.MethodPost, "/api/v1/documents", "U1", map[string]any{"type": "canvass", "amount": "10"}))
	path := "/api/v1/documents/" + created.ReferenceNo + "/decision"

	rec := s.do(t, stdhttp.MethodPost, path, "A1", map[string]any{"decision": "decline", "reason_id": retired.ID})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "active rejection reason")

	rec = s.do(t, stdhttp.MethodPost, path, "A1", map[string]any{"decision": "decline", "reason_id": active.ID, "remarks": "too pricey"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	d := decode[decisionBody](t, rec)
	assert.Equal(t, 2, d.FinalStatus)
	assert.Equal(t, "A1", *d.NextActionUserID)
	assert.Nil(t, d.Downstream)
}

func TestDocumentHandlers_InternalErrorIsGeneric(t *testing.T) {
	s := newTestServer(t)
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := s.do(t, stdhttp.MethodGet, "/api/v1/inbox", "U1", nil)
	assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong"}`, rec.Body.String())
	require.NotNil(t, s.logs.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, s.logs.LastEntry().Level)
}
