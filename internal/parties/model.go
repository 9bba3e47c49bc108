package parties

import "strings"

// Party models one customer of the mill.
type Party struct {
	ID               uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string `gorm:"column:party_name;size:190;not null"`
	NormalizedName   string `gorm:"column:normalized_name;size:190;not null;uniqueIndex:idx_parties_normalized"`
	ContactPerson    string `gorm:"column:contact_person;size:190;not null;default:''"`
	Phone            string `gorm:"column:phone;size:64;not null;default:''"`
	Address          string `gorm:"column:address;type:text;not null;default:''"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Party) TableName() string {
	return "parties"
}

// NormalizeName collapses a party name to its deduplication key: lowercase
// with whitespace runs reduced to single spaces. "ABC  Textiles" and
// "abc textiles" are the same party.
func NormalizeName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
