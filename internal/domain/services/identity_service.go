package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
)

// IdentityPerson is the external personalization service's answer
type IdentityPerson struct {
	Status  int    `json:"status"` // 1 = found
	SName   string `json:"sname"`
	FName   string `json:"fname"`
	MName   string `json:"mname"`
	Sex     string `json:"sex"`
	Photo   string `json:"photo"` // base64
	Message string `json:"message"`
}

// InterfaceIdentityService defines the identity verification collaborator
type InterfaceIdentityService interface {
	Lookup(pinfl, psNumber string) (*IdentityPerson, error)
}

// IdentityService calls the national personalization API
type IdentityService struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewIdentityService creates a new identity service with a 10s timeout
func NewIdentityService(cfg *config.Config) InterfaceIdentityService {
	return &IdentityService{
		baseURL: cfg.IdentityAPIURL,
		token:   cfg.IdentityAPIToken,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup fetches a person by national ID and passport number. The passport
// number is zero-padded to 7 digits, the API rejects shorter values.
func (s *IdentityService) Lookup(pinfl, psNumber string) (*IdentityPerson, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("identity service not configured")
	}

	for len(psNumber) < 7 {
		psNumber = "0" + psNumber
	}

	q := url.Values{}
	q.Set("imie", pinfl)
	q.Set("ps", psNumber)

	req, err := http.NewRequest("GET", s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service answered %d", resp.StatusCode)
	}

	var person IdentityPerson
	if err := json.Unmarshal(body, &person); err != nil {
		return nil, err
	}
	return &person, nil
}
