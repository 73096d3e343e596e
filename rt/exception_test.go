package rt

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestTryCatchesThrow(t *testing.T) {
	exc := Try(func() {
		ThrowString("bad thing")
		t.Fatal("unreachable")
	})
	if exc == nil {
		t.Fatal("Try returned nil after a throw")
	}
	if ToStr(exc) != "bad thing" {
		t.Fatalf("exc = %q", ToStr(exc))
	}
	Decref(exc)

	cur := GetException()
	if ToStr(cur) != "bad thing" {
		t.Fatalf("GetException = %q", ToStr(cur))
	}
	Decref(cur)
	ClearException()

	empty := GetException()
	defer Decref(empty)
	if k := empty.Kind(); k != KindStr || ToStr(empty) != "" {
		t.Fatalf("cleared exception = %v %q", k, ToStr(empty))
	}
}

func TestTryWithoutThrow(t *testing.T) {
	ran := false
	if exc := Try(func() { ran = true }); exc != nil {
		t.Fatalf("unexpected exception %q", ToStr(exc))
	}
	if !ran {
		t.Fatal("body did not run")
	}
	if InTry() || TryDepth() != 0 {
		t.Fatal("try depth leaked")
	}
}

func TestNestedTryRethrow(t *testing.T) {
	var inner string
	outer := Try(func() {
		exc := Try(func() {
			if TryDepth() != 2 {
				t.Errorf("depth = %d, want 2", TryDepth())
			}
			ThrowString("inner")
		})
		inner = ToStr(exc)
		Decref(exc)
		ThrowString("outer")
	})
	defer ClearException()
	defer Decref(outer)
	if inner != "inner" || ToStr(outer) != "outer" {
		t.Fatalf("inner=%q outer=%q", inner, ToStr(outer))
	}
}

func TestThrowObjectPayload(t *testing.T) {
	checkLive(t, func() {
		obj := AnonHash()
		DerefHash(obj).SetTake("code", NewInt(42))
		_ = Bless(obj, "TError")
		exc := Try(func() { Throw(obj) })
		if Blessed(exc) != "TError" || ToInt(DerefHash(exc).Get("code")) != 42 {
			t.Fatalf("payload lost: %s", ToStr(exc))
		}
		Decref(exc)
		ClearException()
	})
}

func TestCatchReturnsError(t *testing.T) {
	err := Catch(func() { Die("nope") })
	var exc *Exception
	if !errors.As(err, &exc) {
		t.Fatalf("err = %v (%T)", err, err)
	}
	defer exc.Release()
	if exc.Error() != "nope" {
		t.Fatalf("Error() = %q", exc.Error())
	}
	cur := GetException()
	defer Decref(cur)
	if ToStr(cur) != "" {
		t.Fatal("Catch should clear the slot")
	}
	if Catch(func() {}) != nil {
		t.Fatal("Catch without throw should be nil")
	}
}

func TestForeignPanicPassesThrough(t *testing.T) {
	defer func() {
		if r := recover(); r != "go panic" {
			t.Fatalf("recovered %v", r)
		}
		if TryDepth() != 0 {
			t.Fatal("depth leaked through a foreign panic")
		}
	}()
	Try(func() { panic("go panic") })
}

func TestMustCallThrows(t *testing.T) {
	plain := NewInt(1)
	defer Decref(plain)
	exc := Try(func() { MustCall(plain, "m") })
	defer ClearException()
	defer Decref(exc)
	if !strings.Contains(ToStr(exc), "RT1001") {
		t.Fatalf("exc = %q", ToStr(exc))
	}
}

func TestExceptionsArePerGoroutine(t *testing.T) {
	exc := Try(func() { ThrowString("main") })
	Decref(exc)
	defer ClearException()

	done := make(chan string)
	go func() {
		cur := GetException()
		done <- ToStr(cur)
		Decref(cur)
	}()
	if got := <-done; got != "" {
		t.Fatalf("other goroutine saw %q", got)
	}
}

func TestUncaughtExceptionExits(t *testing.T) {
	var code int
	prevExit := exitFunc
	exitFunc = func(c int) {
		code = c
		panic("exit")
	}
	defer func() { exitFunc = prevExit }()

	out := captureStderr(t, func() {
		defer func() {
			if r := recover(); r != "exit" {
				t.Fatalf("recovered %v", r)
			}
		}()
		ThrowString("fatal")
	})
	ClearException()
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if out != "Uncaught exception: fatal\n" {
		t.Fatalf("stderr = %q", out)
	}
}

func TestUncaughtExceptionProcess(t *testing.T) {
	if os.Getenv("STRADA_RT_UNCAUGHT") == "1" {
		ThrowString("from child")
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestUncaughtExceptionProcess$")
	cmd.Env = append(os.Environ(), "STRADA_RT_UNCAUGHT=1")
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("child err = %v, output:\n%s", err, out)
	}
	if !strings.Contains(string(out), "Uncaught exception: from child") {
		t.Fatalf("child output:\n%s", out)
	}
}
