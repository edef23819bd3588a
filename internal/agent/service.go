package agent

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/config"
	"github.com/gamingear/console/internal/daemon"
	"github.com/gamingear/console/internal/sessions"
)

// Console is a running console shell and the session manager behind it.
type Console struct {
	Config  *config.Config
	Manager *sessions.Manager
	Server  *daemon.Server
}

// StartConsole builds the session manager, optionally restores a persisted
// session and starts the shell.
func StartConsole(ctx context.Context, cfg *config.Config) (*Console, error) {
	manager, err := cfg.NewSessionManager()
	if err != nil {
		return nil, err
	}

	server := daemon.NewServer(cfg, manager)

	if cfg.ShouldRehydrate() {
		if err := manager.Rehydrate(ctx); err != nil && !errors.Is(err, sessions.ErrNoPersistedSession) {
			logrus.WithError(err).Warnln("Unable to restore persisted session")
		}
	}

	if err := server.Start(); err != nil {
		server.Stop()
		manager.Close()
		return nil, err
	}

	return &Console{
		Config:  cfg,
		Manager: manager,
		Server:  server,
	}, nil
}

// Stop shuts the shell down. The session itself is kept so a restart can
// pick it up again.
func (c *Console) Stop() {
	c.Server.Stop()
	c.Manager.Close()
}

// ServiceProgram implements the service.Interface
type ServiceProgram struct {
	config *config.Config

	mu      sync.Mutex
	console *Console
}

func (p *ServiceProgram) Start(s service.Service) error {
	logrus.Infoln("Console service starting")
	go p.run()
	return nil
}

func (p *ServiceProgram) run() {
	console, err := StartConsole(context.Background(), p.config)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to start console shell")
		return
	}

	p.mu.Lock()
	p.console = console
	p.mu.Unlock()

	logrus.Infoln("Console service is running")
}

func (p *ServiceProgram) Stop(s service.Service) error {
	logrus.Infoln("Console service stopping")

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.console != nil {
		p.console.Stop()
		p.console = nil
	}
	return nil
}

// CreateService creates a new service instance
func CreateService(cfg *config.Config) (service.Service, error) {
	svcConfig, err := getServiceConfig(cfg)
	if err != nil {
		return nil, err
	}

	prg := &ServiceProgram{
		config: cfg,
	}

	return service.New(prg, svcConfig)
}

// getServiceConfig returns the service configuration
func getServiceConfig(cfg *config.Config) (*service.Config, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	arguments := []string{"serve"}
	if source := cfg.Source(); len(source) > 0 {
		arguments = append(arguments, "--config", source)
	}

	return &service.Config{
		Name:        common.AppName,
		DisplayName: "Catalog Console Service",
		Description: "Catalog admin console shell and session manager",
		Executable:  exePath,
		Arguments:   arguments,
	}, nil
}
