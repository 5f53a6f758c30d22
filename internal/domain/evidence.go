package domain

import "time"

// EvidenceItem es el texto crudo de un slip tal como fue enviado.
// Inmutable una vez escrito: nunca se actualiza ni se borra, las apuestas
// lo referencian por id sin ser dueñas de su ciclo de vida.
type EvidenceItem struct {
	ID          string
	OwnerID     string
	RawContent  string
	ContentHash string // digest del contenido normalizado, único por owner
	Source      string // origen libre: "manual", "dk-export", "screenshot-ocr"...
	CreatedAt   time.Time
}
