package pgstore

import (
	"strings"

	"gorm.io/gorm/clause"

	"match-board-system/models"
	"match-board-system/store"
)

func (s *PgStore) GetPlayer(id string, forUpdate bool) (*models.Player, error) {
	q := s.db
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.Player
	if err := q.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *PgStore) GetPlayerByExternalID(externalID string) (*models.Player, error) {
	var p models.Player
	if err := s.db.First(&p, "external_user_id = ?", externalID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *PgStore) ListPlayers() ([]models.Player, error) {
	var players []models.Player
	if err := s.db.Order("display_name ASC").Find(&players).Error; err != nil {
		return nil, translate(err)
	}
	return players, nil
}

func orderFor(sort models.PlayerSort) string {
	switch sort {
	case models.SortByPraise:
		return "praise_count DESC, display_name ASC"
	case models.SortByShame:
		return "report_count DESC, display_name ASC"
	case models.SortByName:
		return "display_name ASC"
	default:
		return "reputation DESC, display_name ASC"
	}
}

func (s *PgStore) ListPlayersPaged(page, size int, sort models.PlayerSort) ([]models.Player, int64, error) {
	var total int64
	if err := s.db.Model(&models.Player{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var players []models.Player
	err := s.db.Order(orderFor(sort)).
		Offset((page - 1) * size).
		Limit(size).
		Find(&players).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return players, total, nil
}

func (s *PgStore) SearchPlayers(term string, page, size int) ([]models.Player, int64, error) {
	like := "%" + models.Fold(strings.TrimSpace(term)) + "%"
	q := s.db.Model(&models.Player{}).
		Where("search_key LIKE ?", like)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var players []models.Player
	err := q.Order("display_name ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&players).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return players, total, nil
}

func (s *PgStore) UpsertPlayer(p *models.Player) error {
	p.SearchKey = models.PlayerSearchKey(p.DisplayName, p.Nickname)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "nickname", "avatar_url", "is_vip", "search_key", "updated_at",
		}),
	}).Create(p).Error
	return translate(err)
}

func (s *PgStore) UpdateProfile(id string, fields map[string]interface{}) error {
	// A name change moves the folded search key with it.
	_, nameChanged := fields["display_name"]
	_, nickChanged := fields["nickname"]
	if nameChanged || nickChanged {
		p, err := s.GetPlayer(id, false)
		if err != nil {
			return err
		}
		name, nick := p.DisplayName, p.Nickname
		if v, ok := fields["display_name"].(string); ok {
			name = v
		}
		if v, ok := fields["nickname"].(string); ok {
			nick = v
		}
		fields["search_key"] = models.PlayerSearchKey(name, nick)
	}
	res := s.db.Model(&models.Player{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateAggregates writes the two counts and the derived reputation as
// one statement so no reader ever sees them half-applied.
func (s *PgStore) UpdateAggregates(id string, praise, report, reputation int) error {
	res := s.db.Model(&models.Player{}).Where("id = ?", id).Updates(map[string]interface{}{
		"praise_count": praise,
		"report_count": report,
		"reputation":   reputation,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) PlayerRank(id string) (*models.PlayerRank, error) {
	p, err := s.GetPlayer(id, false)
	if err != nil {
		return nil, err
	}
	rank := &models.PlayerRank{}
	if p.PraiseCount > 0 {
		var ahead int64
		if err := s.db.Model(&models.Player{}).
			Where("praise_count > ?", p.PraiseCount).
			Count(&ahead).Error; err != nil {
			return nil, translate(err)
		}
		r := int(ahead) + 1
		rank.PrestigeRank = &r
	}
	if p.ReportCount > 0 {
		var ahead int64
		if err := s.db.Model(&models.Player{}).
			Where("report_count > ?", p.ReportCount).
			Count(&ahead).Error; err != nil {
			return nil, translate(err)
		}
		r := int(ahead) + 1
		rank.ShameRank = &r
	}
	return rank, nil
}
