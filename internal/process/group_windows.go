//go:build windows

package process

import (
	"context"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

func shellCommand(ctx context.Context, cmdline string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "cmd")
	// cmd.exe does its own quote parsing; hand it the line untouched.
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: "/C " + cmdline}
	return cmd
}

func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP
}

// killTree ends the shell and every child it spawned.
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
	if err := kill.Run(); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
