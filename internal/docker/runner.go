package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

type RunOpts struct {
	Image       string
	Command     []string
	OutDir      string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	ExtraMounts []Mount
	GPUs        bool
	UserID      string
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// ContainerOutDir is where RunOpts.OutDir is mounted. The command runs in
// RunOpts.WorkingDir, or in the image's WORKDIR when that is empty.
const ContainerOutDir = "/out"

func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	envSlice := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		envSlice = append(envSlice, k+"="+v)
	}

	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: opts.OutDir,
			Target: ContainerOutDir,
		},
	}
	for _, m := range opts.ExtraMounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if opts.GPUs {
		hostCfg.DeviceRequests = []container.DeviceRequest{
			{Count: -1, Capabilities: [][]string{{"gpu"}}},
		}
	}

	containerCfg := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		Env:        envSlice,
		WorkingDir: opts.WorkingDir,
		Labels:     map[string]string{"dockscore": "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				dumpLogs(cli, containerID, "", "Container logs (timeout)")
				return &RunResult{
					ExitCode: 124,
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
		case status := <-waitResult.Result:
			dumpLogs(cli, containerID, "100", "Container logs")
			return &RunResult{
				ExitCode: int(status.StatusCode),
				TimedOut: false,
				Duration: time.Since(start),
			}, nil
		}
	}
}

func dumpLogs(cli *client.Client, containerID, tail, header string) {
	logReader, _ := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true, Tail: tail})
	if logReader == nil {
		return
	}
	defer logReader.Close()
	logData, _ := io.ReadAll(logReader)
	if len(logData) > 0 {
		fmt.Fprintf(os.Stderr, "%s:\n%s\n", header, string(logData))
	}
}
