package model

// SyncRequest - пакет локальных изменений клиента.
// Таймстемпы клиентские и принимаются как есть, сервер часы клиента не проверяет.
type SyncRequest struct {
	Tasks      []Task `json:"tasks"`
	LastSyncAt *int64 `json:"last_sync_at"`
}

// SyncResponse - задачи, изменившиеся на сервере с прошлой синхронизации.
// ServerTime клиент сохраняет как last_sync_at для следующего вызова.
// DeletedIDs всегда пуст: жесткие удаления через sync не распространяются.
type SyncResponse struct {
	Tasks      []Task   `json:"tasks"`
	ServerTime int64    `json:"server_time"`
	DeletedIDs []string `json:"deleted_ids"`
}
