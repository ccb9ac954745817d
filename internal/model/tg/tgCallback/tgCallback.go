package tgCallback

// Callback buttons uniques
const (
	ShowView   string = "show_view"    // payload is the view name
	BackToXray string = "back_to_xray" // back to the asset class summary
)
