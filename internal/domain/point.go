package domain

// PointDefinition is one stop on a measurement route.
type PointDefinition struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	RouteOrder int      `json:"routeOrder"`
}

// IndexOfPoint returns the position of the point with the given id, or -1.
func IndexOfPoint(points []PointDefinition, id string) int {
	for i, p := range points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// FindPoint returns the point with the given id.
func FindPoint(points []PointDefinition, id string) (PointDefinition, bool) {
	if i := IndexOfPoint(points, id); i >= 0 {
		return points[i], true
	}
	return PointDefinition{}, false
}

// DefaultPoints is the demo route used when no site file is configured.
func DefaultPoints() []PointDefinition {
	return []PointDefinition{
		{ID: "1", Name: "G1_main-girder_1-1", Category: CategoryGeneral, RouteOrder: 1},
		{ID: "2", Name: "G1_main-girder_1-2", Category: CategoryGeneral, RouteOrder: 2},
		{ID: "3", Name: "G1_main-girder_1-3", Category: CategoryGeneral, RouteOrder: 3},
		{ID: "4", Name: "G1_main-girder_1-4", Category: CategoryGeneral, RouteOrder: 4},
		{ID: "5", Name: "G2_main-girder_1-1", Category: CategoryExtra, RouteOrder: 5},
		{ID: "6", Name: "G2_main-girder_1-2", Category: CategoryExtra, RouteOrder: 6},
		{ID: "7", Name: "sway-bracing_1", Category: CategorySpecial, RouteOrder: 7},
		{ID: "8", Name: "splice-plate_1", Category: CategorySplice, RouteOrder: 8},
	}
}
