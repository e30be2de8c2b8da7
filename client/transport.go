package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jpalomar/CitasGo/pkg/httpclient"
)

// api is the thin HTTP layer under the SDK operations. Every call goes
// through the shared circuit-breaker client; non-2xx responses are
// converted to AppErrors carrying the API's detail or field-keyed payload,
// so no raw transport error ever reaches a caller.
type api struct {
	baseURL string
	httpc   *httpclient.CircuitBreakerClient
	// token supplies the current access token, or "" when logged out.
	token func() string
}

func newAPI(baseURL string, httpc *httpclient.CircuitBreakerClient, token func() string) *api {
	return &api{baseURL: baseURL, httpc: httpc, token: token}
}

// do issues a JSON request and decodes the response into out (when out is
// non-nil). A bearer token is attached when one is available.
func (a *api) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.httpc.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("citas-api unreachable: %w", err)
	}
	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "citas-api")
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (a *api) login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	in := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/auth/login", in, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (a *api) register(ctx context.Context, in RegisterInput) error {
	return a.do(ctx, http.MethodPost, "/auth/register", in, nil)
}

func (a *api) verifyEmail(ctx context.Context, uid, token string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/auth/verify-email/%s/%s", url.PathEscape(uid), url.PathEscape(token))
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (a *api) listSlots(ctx context.Context, available *bool) ([]Slot, error) {
	path := "/agenda/horarios"
	if available != nil {
		path += "?disponible=" + fmt.Sprintf("%t", *available)
	}
	var slots []Slot
	if err := a.do(ctx, http.MethodGet, path, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (a *api) createSlot(ctx context.Context, in createSlotRequest) (*Slot, error) {
	var slot Slot
	if err := a.do(ctx, http.MethodPost, "/agenda/horarios", in, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (a *api) deleteSlot(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/agenda/horarios/"+url.PathEscape(id), nil, nil)
}

func (a *api) listAppointments(ctx context.Context) ([]Appointment, error) {
	var appts []Appointment
	if err := a.do(ctx, http.MethodGet, "/citas/citas", nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (a *api) book(ctx context.Context, slotID, reason string) (*Appointment, error) {
	var appt Appointment
	in := map[string]string{"horario_id": slotID, "motivo": reason}
	if err := a.do(ctx, http.MethodPost, "/citas/citas", in, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// transition posts one of the lifecycle actions (confirmar, rechazar,
// completar) for the given appointment.
func (a *api) transition(ctx context.Context, apptID, action string) (*Appointment, error) {
	var appt Appointment
	path := fmt.Sprintf("/citas/citas/%s/%s", url.PathEscape(apptID), action)
	if err := a.do(ctx, http.MethodPost, path, nil, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// RegisterInput holds the fields for account registration.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type createSlotRequest struct {
	SpecialistID string `json:"especialista,omitempty"`
	Date         string `json:"fecha"`
	StartTime    string `json:"hora_inicio"`
	EndTime      string `json:"hora_fin"`
}
