package models

// UploadRequest описывает загрузку: имя исходного файла, заявленный MIME и размер (-1, если неизвестен).
type UploadRequest struct {
	OriginalName string
	ContentType  string
	Size         int64
}

// UploadResult возвращается после успешной загрузки и содержит ключевые метаданные.
type UploadResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}
