// Package io implements the "stdlib/io" module: console I/O plus a
// websocket client built on gorilla/websocket, exposing a single outbound
// connection the script can open, send on and close.
package io

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

// Register installs the stdlib/io module into vmInst.Modules.
func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("print", native("io.print", nativePrint))
	mod.Set("println", native("io.println", nativePrintln))
	mod.Set("read_line", native("io.read_line", nativeReadLine))
	mod.Set("ws_connect", native("io.ws_connect", nativeWsConnect))
	vmInst.Modules["stdlib/io"] = mod
}

func native(name string, fn value.NativeCall) *value.NativeFunction {
	return &value.NativeFunction{Name: name, Arity: -1, Fn: fn}
}

func nativePrint(_ interface{}, args []value.Value) (value.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(value.Display(a))
	}
	return value.NullValue, nil
}

func nativePrintln(vmIface interface{}, args []value.Value) (value.Value, error) {
	if _, err := nativePrint(vmIface, args); err != nil {
		return nil, err
	}
	fmt.Println()
	return value.NullValue, nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func nativeReadLine(_ interface{}, _ []value.Value) (value.Value, error) {
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return value.NullValue, nil
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return value.String{Val: line}, nil
}

// nativeWsConnect wraps a *websocket.Conn behind a Table so script code
// treats it as an ordinary object with send/recv/close methods bound as
// native fields. recv blocks until a frame arrives.
func nativeWsConnect(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ws_connect expects a url string")
	}
	url, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("ws_connect expects a url string")
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url.Val, nil)
	if err != nil {
		return nil, fmt.Errorf("ws_connect: %w", err)
	}
	handle := value.NewTable()
	handle.Set("send", native("ws.send", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("send expects one string argument")
		}
		msg, _ := args[0].(value.String)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Val)); err != nil {
			return nil, err
		}
		return value.NullValue, nil
	}))
	handle.Set("recv", native("ws.recv", func(_ interface{}, _ []value.Value) (value.Value, error) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return value.NullValue, err
		}
		return value.String{Val: string(data)}, nil
	}))
	handle.Set("close", native("ws.close", func(_ interface{}, _ []value.Value) (value.Value, error) {
		return value.NullValue, conn.Close()
	}))
	return handle, nil
}
