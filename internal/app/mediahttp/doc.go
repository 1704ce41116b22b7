// Package mediahttp реализует Media Server: HTTP-интерфейс каталога видео поверх локального
// диска. Основные эндпоинты:
//   - GET /api/videos: список видеофайлов директории (id, name, filename, size, createdAt).
//   - GET|HEAD /api/video/{filename}: выдача файла целиком (200) или диапазона по Range (206/416).
//   - POST /api/upload: приём multipart-поля "video" с проверкой типа и размера.
//   - POST /admin/gc: ручная уборка брошенных временных файлов загрузок.
//   - GET /health: проверка живости.
package mediahttp
