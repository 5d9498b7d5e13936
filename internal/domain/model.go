package domain

import (
	"time"
)

// ProjectModel is the GORM model for the projects table.
type ProjectModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	Code        string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (ProjectModel) TableName() string {
	return "projects"
}

// MessageModel is the GORM model for the messages table. The autoincrement
// primary key doubles as the append order of the chat log.
type MessageModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ProjectID string    `gorm:"type:varchar(36);index;not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (MessageModel) TableName() string {
	return "messages"
}

// Project is the domain entity for a collaboration project. It carries the
// single shared code buffer; there is no versioning and concurrent writers
// resolve last-write-wins.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatMessage is one entry of a project's append-only chat log.
type ChatMessage struct {
	ID        uint64    `json:"id"`
	ProjectID string    `json:"project_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDomain converts a ProjectModel to a domain Project.
func (m *ProjectModel) ToDomain() *Project {
	return &Project{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Code:        m.Code,
		CreatedAt:   m.CreatedAt,
	}
}

// ProjectToModel converts a domain Project to its GORM model.
func ProjectToModel(p *Project) *ProjectModel {
	return &ProjectModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Code:        p.Code,
	}
}

// ToDomain converts a MessageModel to a domain ChatMessage.
func (m *MessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// ProjectSummary is the project listing shape returned by the HTTP API.
// The code buffer is omitted; clients fetch it over the websocket.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToSummary strips the code buffer from a project.
func (p *Project) ToSummary() ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
