package domain

// A named, stored stop set that comparisons can be run against.
type Instance struct {
	InstanceID int
	Name       string
	Stops      StopSet
}
