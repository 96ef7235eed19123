// workers/member_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"match-board-system/models"
	"match-board-system/store"
)

// MirroredMember matches the JSON response from the membership service.
type MirroredMember struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Nickname    string    `json:"nickname"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	IsVip       bool      `json:"is_vip"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetMemberChangesResponse is the top-level structure of the membership service response.
type GetMemberChangesResponse struct {
	Members []MirroredMember `json:"members"`
}

// MemberSyncWorker mirrors the membership service into the local player
// directory. VIP flags arrive through here; the admin endpoint is only
// an override.
type MemberSyncWorker struct {
	directory    store.PlayerDirectory
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/members"
	serviceToken string
	httpClient   *http.Client

	lastSync time.Time
}

func NewMemberSyncWorker(directory store.PlayerDirectory, membershipBaseURL, endpointPath, serviceToken string) *MemberSyncWorker {
	return &MemberSyncWorker{
		directory:    directory,
		interval:     1 * time.Minute,
		baseURL:      membershipBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *MemberSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Member Sync Worker (membership-service → players)…")
	go w.run(ctx)
}

func (w *MemberSyncWorker) run(ctx context.Context) {
	// Initial sync (backfill if needed) - sync from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial member sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.lastSync); err != nil {
				log.Printf("❌ Member sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Member Sync Worker stopped")
			return
		}
	}
}

// syncBatch fetches member changes and upserts them into the player directory.
func (w *MemberSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid membership service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Printf("[SYNC] ❌ Request to %s failed: %v", finalURL, err)
		return fmt.Errorf("HTTP request to membership service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[SYNC] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		errMsg := string(body)
		log.Printf("[SYNC] ❌ Membership service returned %d for %s: %s", resp.StatusCode, finalURL, errMsg)
		return fmt.Errorf("membership service non-200 response: %d — %s", resp.StatusCode, errMsg)
	}

	var response GetMemberChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode membership service response: %w", err)
	}

	if len(response.Members) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d member(s) from membership service…", len(response.Members))

	var upsertCount, errorCount int
	var latest time.Time
	for _, remote := range response.Members {
		player := models.Player{
			ID:             uuid.NewString(), // kept only on first insert
			ExternalUserID: remote.ExternalID,
			DisplayName:    remote.DisplayName,
			Nickname:       remote.Nickname,
			AvatarURL:      remote.AvatarURL,
			IsVip:          remote.IsVip,
		}
		if err := w.directory.UpsertPlayer(&player); err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert player (external_id=%q, name=%q): %v",
				remote.ExternalID, remote.DisplayName, err)
		} else {
			upsertCount++
		}
		if remote.UpdatedAt.After(latest) {
			latest = remote.UpdatedAt
		}
	}

	if latest.After(w.lastSync) {
		w.lastSync = latest
	}
	log.Printf("[SYNC] ✅ Synced %d member(s) (%d upserted, %d errors)",
		len(response.Members), upsertCount, errorCount)

	return nil
}
