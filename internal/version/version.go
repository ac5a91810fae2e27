package version

// Version is the current version of ResearchKit
const Version = "0.3.0"
