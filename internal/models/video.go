package models

import "time"

// Video описывает один файл из каталога видео. ID совпадает с именем файла на диске.
type Video struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
