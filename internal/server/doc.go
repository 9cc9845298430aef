// Package server assembles the navigation service: configuration, logging,
// metrics, the route table, the selected host adapter, the coordinator and
// bridge, and the HTTP control surface.
package server
