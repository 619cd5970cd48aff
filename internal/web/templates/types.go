package templates

// Point is one bar or line vertex.
type Point struct {
	Label string
	Value float64
	Valid bool
}

// ChartKind selects the chart shape.
type ChartKind int

const (
	Bars ChartKind = iota
	Line
)

// Chart is an inline SVG chart with optional reference lines.
type Chart struct {
	Title  string
	Kind   ChartKind
	Unit   string
	Points []Point
	Mean   float64
	Goal   float64
	// HasMean and HasGoal enable the reference lines.
	HasMean bool
	HasGoal bool
	// LowerIsBetter flips which bars count as reaching the goal.
	LowerIsBetter bool
}

// StatCard is a headline number on the home page.
type StatCard struct {
	Label string
	Value string
}

type HomePage struct {
	Days     int
	Weeks    int
	Months   int
	FirstDay string
	LastDay  string
	RunID    string
	LastRun  string
	Latest   []StatCard
}

// GoalCard pairs a chart with the current value and its goal.
type GoalCard struct {
	Label   string
	Current string
	Goal    string
	Mean    string
	Delta   string
	Met     bool
	HasGoal bool
	Chart   Chart
}

type GoalGroup struct {
	Name  string
	Cards []GoalCard
}

type WeeklyPage struct {
	Start         string
	End           string
	Prev          string
	Next          string
	ReferenceYear int
	Years         []int
	Coefficient   float64
	Days          int
	Groups        []GoalGroup
}

type YearlyPage struct {
	ReferenceYear int
	CurrentYear   int
	Years         []int
	Coefficient   float64
	Groups        []GoalGroup
}

type TrendsPage struct {
	Charts []Chart
}

// ErrorPage is shown when a page cannot be built.
type ErrorPage struct {
	Title   string
	Message string
}
