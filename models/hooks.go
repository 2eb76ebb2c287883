package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated client-side so the same models work against Postgres in
// production and SQLite in tests.

func setID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (a *Agency) BeforeCreate(tx *gorm.DB) error              { setID(&a.ID); return nil }
func (u *AdminUser) BeforeCreate(tx *gorm.DB) error           { setID(&u.ID); return nil }
func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error        { setID(&t.ID); return nil }
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error          { setID(&m.ID); return nil }
func (u *StaffUser) BeforeCreate(tx *gorm.DB) error           { setID(&u.ID); return nil }
func (c *TrainingCategory) BeforeCreate(tx *gorm.DB) error    { setID(&c.ID); return nil }
func (m *TrainingModule) BeforeCreate(tx *gorm.DB) error      { setID(&m.ID); return nil }
func (l *TrainingLesson) BeforeCreate(tx *gorm.DB) error      { setID(&l.ID); return nil }
func (q *Quiz) BeforeCreate(tx *gorm.DB) error                { setID(&q.ID); return nil }
func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error        { setID(&q.ID); return nil }
func (a *TrainingAssignment) BeforeCreate(tx *gorm.DB) error  { setID(&a.ID); return nil }
func (c *LessonCompletion) BeforeCreate(tx *gorm.DB) error    { setID(&c.ID); return nil }
func (p *ChallengePurchase) BeforeCreate(tx *gorm.DB) error   { setID(&p.ID); return nil }
func (a *ChallengeAssignment) BeforeCreate(tx *gorm.DB) error { setID(&a.ID); return nil }
func (l *ChallengeLesson) BeforeCreate(tx *gorm.DB) error     { setID(&l.ID); return nil }
func (l *Core4Log) BeforeCreate(tx *gorm.DB) error            { setID(&l.ID); return nil }
func (r *ChallengeReflection) BeforeCreate(tx *gorm.DB) error { setID(&r.ID); return nil }
func (c *AgencyCall) BeforeCreate(tx *gorm.DB) error          { setID(&c.ID); return nil }
func (a *CallAnalysis) BeforeCreate(tx *gorm.DB) error        { setID(&a.ID); return nil }
func (r *CallRubric) BeforeCreate(tx *gorm.DB) error          { setID(&r.ID); return nil }
