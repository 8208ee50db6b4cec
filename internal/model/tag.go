package model

// Tag - категория задач. Задача ссылается на тег по имени без внешнего ключа.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at"`
}

type TagPatch struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	IsDefault *bool   `json:"is_default"`
}

func (p TagPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil && p.IsDefault == nil
}
