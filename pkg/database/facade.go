package database

// FacadeInterface defines the Facade interface for unit testing and mocking
type FacadeInterface interface {
	// GetRun returns the Run facade interface
	GetRun() RunFacadeInterface
}

// Facade is the unified entry point for database operations
type Facade struct {
	Run RunFacadeInterface
}

// NewFacade creates a new Facade instance
func NewFacade() *Facade {
	return &Facade{
		Run: NewRunFacade(),
	}
}

// GetRun returns the Run facade interface
func (f *Facade) GetRun() RunFacadeInterface {
	return f.Run
}

// Global default Facade instance
var defaultFacade FacadeInterface = NewFacade()

// GetFacade returns the default Facade instance
func GetFacade() FacadeInterface {
	return defaultFacade
}

// SetFacade replaces the default Facade instance, for unit testing
func SetFacade(f FacadeInterface) {
	defaultFacade = f
}
