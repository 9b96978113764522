package types

// AssetInstance is a physical location or object in the household that a
// task may be tied to, such as "Kitchen Counter".
type AssetInstance struct {
	ID              string `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	AssetTemplateID string `json:"assetTemplateId" db:"asset_template_id"`
}
