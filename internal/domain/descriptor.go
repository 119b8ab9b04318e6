package domain

// DataTypeDescriptor identifies one exportable data type on the import server.
type DataTypeDescriptor struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Glyph       string `mapstructure:"glyph" json:"glyph"`
	Description string `mapstructure:"description" json:"description"`
}

// DefaultGlyph is used when a data type has no glyph of its own.
const DefaultGlyph = "📊"

// DefaultCatalog returns the data types imported by default, in the order
// they are processed within each window.
func DefaultCatalog() []DataTypeDescriptor {
	return []DataTypeDescriptor{
		{ID: "5077534948", Name: "buildings", Glyph: "🏢", Description: "Building information"},
		{ID: "5002645397", Name: "cases", Glyph: "📋", Description: "Support cases and tickets"},
		{ID: "5002207692", Name: "conversations", Glyph: "💬", Description: "Conversation history"},
		{ID: "5053863837", Name: "interactions", Glyph: "🔄", Description: "User interactions"},
		{ID: "5157703494", Name: "nocInteractions", Glyph: "🔧", Description: "NOC interactions"},
		{ID: "4693855982", Name: "userStateInteractions", Glyph: "👤", Description: "User state changes"},
		{ID: "5157670999", Name: "users", Glyph: "👥", Description: "User accounts"},
		{ID: "5219392695", Name: "userSessionHistory", Glyph: "📅", Description: "Session history"},
		{ID: "20348692306", Name: "schedule", Glyph: "📋", Description: "Schedule data"},
		{ID: "20357111093", Name: "slaPolicy", Glyph: "📊", Description: "SLA policies"},
	}
}

// GlyphFor looks up the glyph of the named data type in catalog.
func GlyphFor(catalog []DataTypeDescriptor, name string) string {
	for _, d := range catalog {
		if d.Name == name && d.Glyph != "" {
			return d.Glyph
		}
	}
	return DefaultGlyph
}
