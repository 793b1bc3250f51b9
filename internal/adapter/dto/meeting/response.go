package meeting

import "time"

// UploadAudioResponse confirms an audio upload
type UploadAudioResponse struct {
	MeetingID string `json:"meeting_id"`
	FileName  string `json:"file_name"`
	SizeBytes int64  `json:"size_bytes"`
}

// DocumentResponse describes one generated minutes document
type DocumentResponse struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries fresh tokens
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
