package moodlog

// Version is the moodlog release version.
const Version = "0.3.0"
