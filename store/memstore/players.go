package memstore

import (
	"sort"
	"strings"
	"time"

	"match-board-system/models"
	"match-board-system/store"
)

func (d *data) getPlayer(id string) (*models.Player, error) {
	p, ok := d.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *data) getPlayerByExternalID(externalID string) (*models.Player, error) {
	for _, p := range d.players {
		if p.ExternalUserID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *data) listPlayers() ([]models.Player, error) {
	out := make([]models.Player, 0, len(d.players))
	for _, p := range d.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func sortPlayers(players []models.Player, by models.PlayerSort) {
	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		switch by {
		case models.SortByPraise:
			if a.PraiseCount != b.PraiseCount {
				return a.PraiseCount > b.PraiseCount
			}
		case models.SortByShame:
			if a.ReportCount != b.ReportCount {
				return a.ReportCount > b.ReportCount
			}
		case models.SortByName:
			return a.DisplayName < b.DisplayName
		default: // reputation
			if a.Reputation != b.Reputation {
				return a.Reputation > b.Reputation
			}
		}
		return a.DisplayName < b.DisplayName
	})
}

func pageSlice(players []models.Player, page, size int) []models.Player {
	start := (page - 1) * size
	if start >= len(players) {
		return []models.Player{}
	}
	end := start + size
	if end > len(players) {
		end = len(players)
	}
	return players[start:end]
}

func (d *data) listPlayersPaged(page, size int, by models.PlayerSort) ([]models.Player, int64, error) {
	all, _ := d.listPlayers()
	sortPlayers(all, by)
	return pageSlice(all, page, size), int64(len(all)), nil
}

func (d *data) searchPlayers(term string, page, size int) ([]models.Player, int64, error) {
	needle := models.Fold(strings.TrimSpace(term))
	var hits []models.Player
	for _, p := range d.players {
		if needle == "" || strings.Contains(p.SearchKey, needle) {
			hits = append(hits, *p)
		}
	}
	sortPlayers(hits, models.SortByName)
	return pageSlice(hits, page, size), int64(len(hits)), nil
}

func (d *data) upsertPlayer(p *models.Player) error {
	// Conflict key is the external user ID, matching the relational
	// store's unique index. An existing row keeps its ID and counts;
	// only the mirrored profile fields are refreshed.
	for id, existing := range d.players {
		if existing.ExternalUserID == p.ExternalUserID {
			cp := *existing
			cp.DisplayName = p.DisplayName
			cp.Nickname = p.Nickname
			cp.AvatarURL = p.AvatarURL
			cp.IsVip = p.IsVip
			cp.SearchKey = models.PlayerSearchKey(cp.DisplayName, cp.Nickname)
			cp.UpdatedAt = time.Now()
			d.players[id] = &cp
			return nil
		}
	}
	cp := *p
	cp.SearchKey = models.PlayerSearchKey(cp.DisplayName, cp.Nickname)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	// Mirror the column default for fresh rows.
	if cp.Reputation == 0 && cp.PraiseCount == 0 && cp.ReportCount == 0 {
		cp.Reputation = 6
	}
	d.players[cp.ID] = &cp
	return nil
}

func (d *data) updateProfile(id string, fields map[string]interface{}) error {
	p, ok := d.players[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *p
	if v, ok := fields["display_name"].(string); ok {
		cp.DisplayName = v
	}
	if v, ok := fields["nickname"].(string); ok {
		cp.Nickname = v
	}
	if v, ok := fields["avatar_url"].(string); ok {
		cp.AvatarURL = &v
	}
	if v, ok := fields["is_vip"].(bool); ok {
		cp.IsVip = v
	}
	cp.SearchKey = models.PlayerSearchKey(cp.DisplayName, cp.Nickname)
	d.players[id] = &cp
	return nil
}

func (d *data) updateAggregates(id string, praise, report, reputation int) error {
	p, ok := d.players[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *p
	cp.PraiseCount = praise
	cp.ReportCount = report
	cp.Reputation = reputation
	d.players[id] = &cp
	return nil
}

func (d *data) playerRank(id string) (*models.PlayerRank, error) {
	p, ok := d.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	rank := &models.PlayerRank{}
	if p.PraiseCount > 0 {
		r := 1
		for _, q := range d.players {
			if q.PraiseCount > p.PraiseCount {
				r++
			}
		}
		rank.PrestigeRank = &r
	}
	if p.ReportCount > 0 {
		r := 1
		for _, q := range d.players {
			if q.ReportCount > p.ReportCount {
				r++
			}
		}
		rank.ShameRank = &r
	}
	return rank, nil
}

// Locked wrappers.

// The forUpdate flag is a no-op here: the store mutex already
// serializes whole Atomic blocks.
func (s *MemStore) GetPlayer(id string, forUpdate bool) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getPlayer(id)
}

func (s *MemStore) GetPlayerByExternalID(externalID string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getPlayerByExternalID(externalID)
}

func (s *MemStore) ListPlayers() ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listPlayers()
}

func (s *MemStore) ListPlayersPaged(page, size int, by models.PlayerSort) ([]models.Player, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listPlayersPaged(page, size, by)
}

func (s *MemStore) SearchPlayers(term string, page, size int) ([]models.Player, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.searchPlayers(term, page, size)
}

func (s *MemStore) UpsertPlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.upsertPlayer(p)
}

func (s *MemStore) UpdateProfile(id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateProfile(id, fields)
}

func (s *MemStore) UpdateAggregates(id string, praise, report, reputation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateAggregates(id, praise, report, reputation)
}

func (s *MemStore) PlayerRank(id string) (*models.PlayerRank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.playerRank(id)
}

// Transaction-view wrappers.

func (t *txView) GetPlayer(id string, forUpdate bool) (*models.Player, error) {
	return t.d.getPlayer(id)
}

func (t *txView) GetPlayerByExternalID(externalID string) (*models.Player, error) {
	return t.d.getPlayerByExternalID(externalID)
}

func (t *txView) ListPlayers() ([]models.Player, error) { return t.d.listPlayers() }

func (t *txView) ListPlayersPaged(page, size int, by models.PlayerSort) ([]models.Player, int64, error) {
	return t.d.listPlayersPaged(page, size, by)
}

func (t *txView) SearchPlayers(term string, page, size int) ([]models.Player, int64, error) {
	return t.d.searchPlayers(term, page, size)
}

func (t *txView) UpsertPlayer(p *models.Player) error { return t.d.upsertPlayer(p) }

func (t *txView) UpdateProfile(id string, fields map[string]interface{}) error {
	return t.d.updateProfile(id, fields)
}

func (t *txView) UpdateAggregates(id string, praise, report, reputation int) error {
	return t.d.updateAggregates(id, praise, report, reputation)
}

func (t *txView) PlayerRank(id string) (*models.PlayerRank, error) { return t.d.playerRank(id) }
