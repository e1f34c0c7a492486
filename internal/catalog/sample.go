package catalog

// SampleItems returns the demo catalog used by the seed command.
func SampleItems() *Items {
	return &Items{Items: []*Item{
		NewItem("Security Camera", "HD night vision security camera", 120.0),
		NewItem("Motion Detector", "Infrared motion sensor for indoor/outdoor use", 45.5),
		NewItem("Alarm Panel", "Touchscreen alarm control panel", 200.0),
		NewItem("Door Sensor", "Wireless door/window entry sensor", 18.75),
		NewItem("Floodlight", "Outdoor security floodlight with motion activation", 65.0),
	}}
}
