// Pacote domain concentra as entidades do placar e os contratos entre as camadas.
package domain

import (
	"fmt"
	"time"
)

// Papeis aceitos no marcador de sessao.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleJudge Role = "judge"
)

// Caminhos raiz da arvore compartilhada.
const (
	PathPerformances      = "performances"
	PathJudges            = "judges"
	PathScores            = "scores"
	PathSettings          = "settings"
	PathActivePerformance = "settings/activePerformanceId"
	PathMaxScore          = "settings/maxScore"
)

// DefaultMaxScore vale quando settings/maxScore esta ausente ou invalido.
const DefaultMaxScore = 10.0

type Performance struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Performer string `json:"performer"`
	ImageURL  string `json:"imageUrl"`
	Order     int    `json:"order"`
}

type Judge struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
}

// Score e unico por (JudgeID, PerformanceID); reenvio sobrescreve no mesmo caminho.
type Score struct {
	PerformanceID string  `json:"performanceId"`
	JudgeID       string  `json:"judgeId"`
	Value         float64 `json:"value"`
	Comment       string  `json:"comment,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}

func (s Score) Key() string {
	return ScoreKey(s.JudgeID, s.PerformanceID)
}

// ScoreKey monta a chave composta usada em scores/{judgeId}_{performanceId}.
func ScoreKey(judgeID, performanceID string) string {
	return fmt.Sprintf("%s_%s", judgeID, performanceID)
}

type Settings struct {
	ActivePerformanceID string  `json:"activePerformanceId"`
	MaxScore            float64 `json:"maxScore"`
}

// State e a visao tipada materializada a partir de um snapshot da arvore.
type State struct {
	Version      uint64        `json:"version"`
	Performances []Performance `json:"performances"`
	Judges       []Judge       `json:"judges"`
	Scores       []Score       `json:"scores"`
	Settings     Settings      `json:"settings"`
}

func (s State) Performance(id string) (Performance, bool) {
	for _, p := range s.Performances {
		if p.ID == id {
			return p, true
		}
	}
	return Performance{}, false
}

func (s State) Judge(id string) (Judge, bool) {
	for _, j := range s.Judges {
		if j.ID == id {
			return j, true
		}
	}
	return Judge{}, false
}

func (s State) Score(judgeID, performanceID string) (Score, bool) {
	for _, sc := range s.Scores {
		if sc.JudgeID == judgeID && sc.PerformanceID == performanceID {
			return sc, true
		}
	}
	return Score{}, false
}

// ActivePerformance devolve a apresentacao ativa; ponteiro pendente conta como nenhuma.
func (s State) ActivePerformance() (Performance, bool) {
	if s.Settings.ActivePerformanceID == "" {
		return Performance{}, false
	}
	return s.Performance(s.Settings.ActivePerformanceID)
}

// Draft e o rascunho local de um jurado para uma apresentacao.
type Draft struct {
	JudgeID       string    `gorm:"column:judge_id;type:varchar(64);primaryKey"`
	PerformanceID string    `gorm:"column:performance_id;type:varchar(64);primaryKey"`
	Score         float64   `gorm:"column:score;not null;default:0"`
	Comment       string    `gorm:"column:comment;type:text"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Session e o marcador de autenticacao {role, judgeId} persistido ate o logout.
type Session struct {
	Token     string    `gorm:"column:token;type:varchar(64);primaryKey" json:"token"`
	Role      Role      `gorm:"column:role;type:varchar(16);not null" json:"role"`
	JudgeID   string    `gorm:"column:judge_id;type:varchar(64);index" json:"judgeId,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Draft) TableName() string { return "drafts" }

func (Session) TableName() string { return "sessions" }
