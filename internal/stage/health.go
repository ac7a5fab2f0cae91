package stage

// Health reports whether a pipeline stage is ready to process items. Detail
// explains what is missing when it is not.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a ready stage.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that cannot run, with the reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
