package dto

type InstanceResponse struct {
	InstanceID int            `json:"instance_id"`
	Name       string         `json:"name"`
	Stops      []PointRequest `json:"stops"`
}

type ListInstancesResponse struct {
	Instances []InstanceResponse `json:"instances"`
}
