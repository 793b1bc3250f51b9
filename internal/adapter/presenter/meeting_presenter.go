package presenter

import (
	meetingdto "github.com/meetingminutes/backend/internal/adapter/dto/meeting"
	"github.com/meetingminutes/backend/internal/domain/entities"
)

// ToDocumentResponse converts a GeneratedDocument entity to its DTO
func ToDocumentResponse(d *entities.GeneratedDocument) meetingdto.DocumentResponse {
	return meetingdto.DocumentResponse{
		ID:        d.ID.String(),
		Format:    string(d.Format),
		Version:   d.Version,
		FileName:  d.FileName,
		SizeBytes: d.SizeBytes,
		CreatedAt: d.CreatedAt,
	}
}

// ToDocumentResponses converts a slice of documents, newest first as stored
func ToDocumentResponses(docs []*entities.GeneratedDocument) []meetingdto.DocumentResponse {
	out := make([]meetingdto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return out
}
