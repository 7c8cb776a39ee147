// Package services implements the SoftCode service layer: configuration,
// event bus, identity resolution, the conversation store, and the response
// simulator. Services are registered in a global registry and initialized at
// startup; state lives in the global context, not in service instances.
package services

import (
	"fmt"
	"sync"

	"softcode/pkg/softtypes"
)

// Registry manages service registration and lifecycle for SoftCode services.
type Registry struct {
	mu       sync.RWMutex
	services map[string]softtypes.Service
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]softtypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if
// already registered.
func (r *Registry) RegisterService(service softtypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	return nil
}

// GetService retrieves a service by name, returning an error if not found.
func (r *Registry) GetService(name string) (softtypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, service := range r.services {
		if err := service.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// GlobalRegistry is the global service registry instance used throughout
// SoftCode.
var GlobalRegistry = NewRegistry()

// globalRegistryMu protects access to the GlobalRegistry variable itself
var globalRegistryMu sync.RWMutex

// GetGlobalRegistry returns the global service registry instance in a
// thread-safe manner.
func GetGlobalRegistry() *Registry {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return GlobalRegistry
}

// SetGlobalRegistry sets the global service registry instance in a
// thread-safe manner.
func SetGlobalRegistry(registry *Registry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	GlobalRegistry = registry
}

// RegisterCoreServices registers the full service set on the given registry
// in the order the application wires them.
func RegisterCoreServices(registry *Registry) error {
	coreServices := []softtypes.Service{
		NewConfigurationService(),
		NewEventService(),
		NewIdentityService(),
		NewConversationService(),
		NewSimulatorService(),
	}
	for _, service := range coreServices {
		if err := registry.RegisterService(service); err != nil {
			return err
		}
	}
	return nil
}

// Typed accessors for the core services. They return nil when the service is
// not registered, which callers treat as "feature unavailable".

// GetConfigurationService returns the registered configuration service.
func GetConfigurationService() *ConfigurationService {
	service, err := GetGlobalRegistry().GetService("configuration")
	if err != nil {
		return nil
	}
	configuration, _ := service.(*ConfigurationService)
	return configuration
}

// GetEventService returns the registered event bus service.
func GetEventService() *EventService {
	service, err := GetGlobalRegistry().GetService("event")
	if err != nil {
		return nil
	}
	events, _ := service.(*EventService)
	return events
}

// GetIdentityService returns the registered identity service.
func GetIdentityService() *IdentityService {
	service, err := GetGlobalRegistry().GetService("identity")
	if err != nil {
		return nil
	}
	identity, _ := service.(*IdentityService)
	return identity
}

// GetConversationService returns the registered conversation store service.
func GetConversationService() *ConversationService {
	service, err := GetGlobalRegistry().GetService("conversation")
	if err != nil {
		return nil
	}
	conversations, _ := service.(*ConversationService)
	return conversations
}

// GetSimulatorService returns the registered response simulator service.
func GetSimulatorService() *SimulatorService {
	service, err := GetGlobalRegistry().GetService("simulator")
	if err != nil {
		return nil
	}
	simulator, _ := service.(*SimulatorService)
	return simulator
}
