package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"context"

	"github.com/clem-pxp/elevate-auth/internal/faults"
)

const (
	defaultAuthBaseURL      = "https://identitytoolkit.googleapis.com/v1"
	defaultFirestoreBaseURL = "https://firestore.googleapis.com/v1"
	profileCollection       = "users"
)

// FirebaseService talks to the Firebase identity toolkit and Firestore
// document APIs over REST, mirroring how the Stripe client avoids an SDK.
type FirebaseService struct {
	apiKey     string
	projectID  string
	httpClient *http.Client

	authBaseURL      string
	firestoreBaseURL string

	mu      sync.RWMutex
	session *Session
}

// NewFirebaseService builds the adapter from the public web API key and
// the project identifier.
func NewFirebaseService(apiKey, projectID string) *FirebaseService {
	return &FirebaseService{
		apiKey:           apiKey,
		projectID:        projectID,
		httpClient:       &http.Client{Timeout: 15 * time.Second},
		authBaseURL:      defaultAuthBaseURL,
		firestoreBaseURL: defaultFirestoreBaseURL,
	}
}

// SetBaseURLs points the adapter at test servers.
func (s *FirebaseService) SetBaseURLs(authBaseURL, firestoreBaseURL string) {
	s.authBaseURL = strings.TrimSuffix(authBaseURL, "/")
	s.firestoreBaseURL = strings.TrimSuffix(firestoreBaseURL, "/")
}

// SetSession records the federated session established by the shell
// (e.g. after a Google sign-in popup completes).
func (s *FirebaseService) SetSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// CurrentSession implements Service.
func (s *FirebaseService) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, faults.New(faults.KindNotAuthenticated, "Utilisateur non connecté")
	}
	return s.session, nil
}

// CheckEmailExists implements Service. It queries the profile collection
// for a document with the given email. Lookup failures are logged and
// reported as "does not exist": the final create enforces uniqueness.
func (s *FirebaseService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	query := map[string]any{
		"structuredQuery": map[string]any{
			"from": []map[string]any{{"collectionId": profileCollection}},
			"where": map[string]any{
				"fieldFilter": map[string]any{
					"field": map[string]any{"fieldPath": "email"},
					"op":    "EQUAL",
					"value": map[string]any{"stringValue": email},
				},
			},
			"limit": 1,
		},
	}

	url := fmt.Sprintf("%s/projects/%s/databases/(default)/documents:runQuery?key=%s",
		s.firestoreBaseURL, s.projectID, s.apiKey)

	var results []struct {
		Document *json.RawMessage `json:"document"`
	}
	if err := s.postJSON(ctx, url, query, &results); err != nil {
		log.Printf("[identity] email lookup failed: %v", err)
		return false, nil
	}

	for _, r := range results {
		if r.Document != nil {
			return true, nil
		}
	}
	return false, nil
}

// CreateUser implements Service.
func (s *FirebaseService) CreateUser(ctx context.Context, email, password string) (string, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	url := fmt.Sprintf("%s/accounts:signUp?key=%s", s.authBaseURL, s.apiKey)

	var result struct {
		LocalID string `json:"localId"`
	}
	if err := s.postJSON(ctx, url, payload, &result); err != nil {
		return "", err
	}
	if result.LocalID == "" {
		return "", faults.New(faults.KindInvariant, "identity platform returned no subject identifier")
	}
	return result.LocalID, nil
}

// SaveProfile implements Service. The document is keyed by the subject
// identifier, so a retried finalization overwrites rather than duplicates.
func (s *FirebaseService) SaveProfile(ctx context.Context, subjectID string, profile Profile) error {
	url := fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s/%s?key=%s",
		s.firestoreBaseURL, s.projectID, profileCollection, subjectID, s.apiKey)

	doc := map[string]any{"fields": profileFields(profile)}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("identity: encode profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return faults.Wrap(faults.KindNetwork, "Une erreur est survenue", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return s.errorFromResponse(resp)
	}
	return nil
}

func profileFields(p Profile) map[string]any {
	fields := map[string]any{
		"nom":             map[string]any{"stringValue": p.LastName},
		"prenom":          map[string]any{"stringValue": p.FirstName},
		"email":           map[string]any{"stringValue": p.Email},
		"phone":           map[string]any{"stringValue": p.Phone},
		"planId":          map[string]any{"stringValue": p.PlanID},
		"planName":        map[string]any{"stringValue": p.PlanName},
		"planPrice":       map[string]any{"doubleValue": p.PlanPrice},
		"paymentIntentId": map[string]any{"stringValue": p.PaymentIntentID},
		"authProvider":    map[string]any{"stringValue": p.AuthProvider},
		"createdAt":       map[string]any{"timestampValue": p.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"updatedAt":       map[string]any{"timestampValue": p.UpdatedAt.UTC().Format(time.RFC3339Nano)},
	}
	if p.Birthday != nil {
		fields["birthday"] = map[string]any{"timestampValue": p.Birthday.UTC().Format(time.RFC3339Nano)}
	} else {
		fields["birthday"] = map[string]any{"nullValue": nil}
	}
	return fields
}

func (s *FirebaseService) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("identity: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return faults.Wrap(faults.KindNetwork, "Une erreur est survenue", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return s.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("identity: read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity: parse response: %w", err)
	}
	return nil
}

// errorFromResponse extracts the platform error code from a failed call
// and maps it into the taxonomy.
func (s *FirebaseService) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	code := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		// Codes may carry a detail suffix, e.g. "WEAK_PASSWORD : ...".
		code = strings.TrimSpace(strings.SplitN(payload.Error.Message, " ", 2)[0])
	}

	underlying := fmt.Errorf("identity platform error (%d): %s", resp.StatusCode, code)
	log.Printf("[identity] %v", underlying)
	return mapPlatformCode(code, underlying)
}
