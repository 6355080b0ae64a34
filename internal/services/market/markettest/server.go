// Package markettest provides an in-process trade market for tests. List and
// bidding responses are served as plain delimited text, so clients must use
// PlainText as their unpacker.
package markettest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// PlainText is an unpacker for servers that send the delimited text as-is.
type PlainText struct{}

func (PlainText) Unpack(b []byte) (string, error) { return string(b), nil }

type request struct {
	KeyType      int `json:"keyType"`
	MainCategory int `json:"mainCategory"`
	SubCategory  int `json:"subCategory"`
	MainKey      int `json:"mainKey"`
	SubKey       int `json:"subKey"`
}

// Server answers GetWorldMarketList, GetWorldMarketSubList and
// GetBiddingInfoList from the configured maps. Unknown keys get a 404.
type Server struct {
	*httptest.Server

	mu sync.RWMutex
	// "mainCategory/subCategory" -> listing payload
	Listings map[string]string
	// item id -> resultMsg of the sub-list envelope
	Details map[string]string
	// item id -> bidding payload
	Ladders map[string]string
	// endpoint + "/" + key -> forced status code
	Status map[string]int

	requests atomic.Int64
}

func NewServer() *Server {
	s := &Server{
		Listings: make(map[string]string),
		Details:  make(map[string]string),
		Ladders:  make(map[string]string),
		Status:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// ListingKey is the Listings key of a category payload.
func ListingKey(mainCategory, subCategory int) string {
	return fmt.Sprintf("%d/%d", mainCategory, subCategory)
}

func (s *Server) SetListing(mainCategory, subCategory int, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Listings[ListingKey(mainCategory, subCategory)] = payload
}

func (s *Server) SetDetail(itemID, resultMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Details[itemID] = resultMsg
}

func (s *Server) SetLadder(itemID, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ladders[itemID] = payload
}

// Fail forces status for endpoint/key, e.g. Fail("GetBiddingInfoList", "7913", 503).
func (s *Server) Fail(endpoint, key string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status[endpoint+"/"+key] = status
}

// Requests is the number of requests served so far.
func (s *Server) Requests() int64 { return s.requests.Load() }

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	if r.Method != http.MethodPost || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	endpoint := strings.TrimPrefix(r.URL.Path, "/")
	var key string
	switch endpoint {
	case "GetWorldMarketList":
		key = ListingKey(req.MainCategory, req.SubCategory)
	default:
		key = strconv.Itoa(req.MainKey)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.Status[endpoint+"/"+key]; ok {
		w.WriteHeader(status)
		return
	}

	var (
		body string
		ok   bool
	)
	switch endpoint {
	case "GetWorldMarketList":
		body, ok = s.Listings[key]
	case "GetWorldMarketSubList":
		var msg string
		if msg, ok = s.Details[key]; ok {
			env, _ := json.Marshal(map[string]any{"resultCode": 0, "resultMsg": msg})
			body = string(env)
		}
	case "GetBiddingInfoList":
		body, ok = s.Ladders[key]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
