package service

// ForEach exposes the bounded fan-out helper to the external test package.
var ForEach = forEach
