package engine

// TransformStore persists a shape's pose between rounds
type TransformStore interface {
	LoadTransform(key string) (Pose, bool)
	SaveTransform(key string, p Pose) error
}
