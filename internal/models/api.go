package models

// GroupRequest represents a request to compare a set of repositories
type GroupRequest struct {
	Repositories []RepositoryRef `json:"repositories" binding:"required,min=2,dive"`
}

// GroupResponse is returned once a group record exists; the sweep may still be running
type GroupResponse struct {
	Step  SweepState `json:"step"`
	Group *Group     `json:"group"`
}

// ProgressResponse reports the live progress of a group sweep
type ProgressResponse struct {
	Sha      string   `json:"sha"`
	Progress Progress `json:"progress"`
	Pending  int      `json:"pending"`
}
