// Package pr — ввод-вывод для интерактивных сценариев (auth) и отладочной печати.
// Приглашения и диагностические сообщения идут в stderr: stdout остаётся за
// JSON-результатом команды. readline поднимается лениво при первом вопросе.
package pr

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"
	"golang.org/x/term"
)

var (
	// rl — активный инстанс readline, nil до первого Ask.
	rl *readline.Instance
	// cancelableIn позволяет прервать ожидание ввода при shutdown.
	cancelableIn io.Closer
	// errOut — поток приглашений и сообщений пользователю.
	errOut io.Writer = os.Stderr
	mu     sync.Mutex
)

func instance() (*readline.Instance, error) {
	mu.Lock()
	defer mu.Unlock()

	if rl != nil {
		return rl, nil
	}
	cs := readline.NewCancelableStdin(os.Stdin)
	inst, err := readline.NewEx(&readline.Config{Stdin: cs, Stdout: os.Stderr, Stderr: os.Stderr})
	if err != nil {
		_ = cs.Close()
		return nil, err
	}
	rl, cancelableIn = inst, cs
	return rl, nil
}

// Ask выводит приглашение и читает строку без пробелов по краям.
func Ask(prompt string) (string, error) {
	inst, err := instance()
	if err != nil {
		return "", err
	}
	inst.SetPrompt(prompt)
	line, err := inst.Readline()
	return strings.TrimSpace(line), err
}

// AskSecret читает строку без эха, например пароль 2FA.
func AskSecret(prompt string) (string, error) {
	ErrPrint(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	ErrPrintln()
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// Close прерывает ожидание ввода и освобождает терминал. Идемпотентна.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if cancelableIn != nil {
		_ = cancelableIn.Close()
		cancelableIn = nil
	}
	if rl != nil {
		_ = rl.Close()
		rl = nil
	}
}

// Stderr возвращает текущий поток сообщений пользователю.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// ErrPrint печатает значения в Stderr без перевода строки.
func ErrPrint(a ...any) {
	fmt.Fprint(Stderr(), a...)
}

// ErrPrintln печатает значения в Stderr с переводом строки.
func ErrPrintln(a ...any) {
	fmt.Fprintln(Stderr(), a...)
}

// ErrPrintf форматирует строку и печатает её в Stderr.
func ErrPrintf(format string, a ...any) {
	fmt.Fprintf(Stderr(), format, a...)
}

// PP pretty-печатает значение в w.
func PP(w io.Writer, v any) {
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(v))
}
