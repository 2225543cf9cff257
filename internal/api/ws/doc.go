// Package ws streams kernel scheduler, IPC and interrupt events to
// websocket observers.
package ws
