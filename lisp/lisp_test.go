// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"testing"

	"github.com/luthersystems/kiln/kilntest"
	"github.com/luthersystems/kiln/lisp"
)

func TestEvaluator(t *testing.T) {
	tests := kilntest.TestSuite{
		{"literals", kilntest.TestSequence{
			{`3`, `3`, ``},
			{`-1.5`, `-1.5`, ``},
			{`"abc"`, `"abc"`, ``},
			{`:key`, `:key`, ``},
			{`()`, `null`, ``},
			{`'(1 "a" b)`, `(1 "a" b)`, ``},
			{`[1 (+ 1 1)]`, `[1 2]`, ``},
			{`{:a (+ 1 2)}`, `{:a 3}`, ``},
			{`(type-of 1)`, `Integer`, ``},
			{`(type-of 1.0)`, `Float`, ``},
		}},
		{"arithmetic", kilntest.TestSequence{
			{`(type-of (+ 1 2))`, `Integer`, ``},
			{`(+ 1 2)`, `3`, ``},
			{`(+)`, `0`, ``},
			{`(- 5)`, `-5`, ``},
			{`(* 2 3 4)`, `24`, ``},
			{`(/ 7 2)`, `3`, ``},
			{`(+ 1 2.5)`, `3.5`, ``},
			{`(+ 1.5 2)`, `3.5`, ``},
			{`(type-of (* 2 1.0))`, `Float`, ``},
			{`(< 1 2 3)`, `true`, ``},
			{`(< 1 2.5)`, `true`, ``},
		}},
		{"conditionals", kilntest.TestSequence{
			{`(if true 1 2)`, `1`, ``},
			{`(if () 1 2)`, `2`, ``},
			{`(if false 1)`, `null`, ``},
			{`(and 1 2 3)`, `3`, ``},
			{`(and 1 false 3)`, `false`, ``},
			{`(or false () 4)`, `4`, ``},
			{`(or)`, `false`, ``},
		}},
		{"redefinition", kilntest.TestSequence{
			{`(defun add1 (x) (+ x 1))`, `add1`, ``},
			{`(add1 41)`, `42`, ``},
			{`(defun call-add1 (x) (add1 x))`, `call-add1`, ``},
			{`(defun add1 (x) (+ x 2))`, `add1`, ``},
			{`(call-add1 40)`, `42`, ``},
		}},
		{"globals", kilntest.TestSequence{
			{`(def x 2)`, `x`, ``},
			{`(setq x (* x 3))`, `6`, ``},
			{`x`, `6`, ``},
			{`(defconstant k 1)`, `k`, ``},
			{`(setq k 2)`, `assignment-error: cannot assign to constant: k`, ``},
			{`(defconstant k 1)`, `k`, ``},
			{`(defconstant k 2)`, `define-error: constant already defined with a different value: k`, ``},
			{`(defun fn1 () 1)`, `fn1`, ``},
			{`(setq fn1 3)`, `assignment-error: cannot assign to function: fn1`, ``},
			{`undefined-thing`, `undefined-symbol: unbound symbol: undefined-thing`, ``},
			{`(defun uses-missing () missing-value)`, `uses-missing`, ``},
			{`(uses-missing)`, `undefined-symbol: unbound symbol: missing-value`, ``},
		}},
		{"lexical variables", kilntest.TestSequence{
			{`(let ((a 1) (b (+ a 1))) (list a b))`, `(1 2)`, ``},
			{`(let ((a 1)) (let ((a 2)) a))`, `2`, ``},
			{`(do (var a 1) (setq a (+ a 1)) a)`, `2`, ``},
			{`(do (let a 1) (setq a 2))`, `compile-error: cannot assign to readonly variable: a: (setq a 2)`, ``},
			{`(do (var a 1) (var a 2))`, `compile-error: duplicate declaration of a: a`, ``},
			{`(var z 1)`, `compile-error: declaration outside of a block scope: z: (var z 1)`, ``},
		}},
		{"closures", kilntest.TestSequence{
			{`(let ((n 0))
			   (funcall (lambda () (setq n (+ n 1))))
			   (funcall (lambda () (setq n (+ n 1))))
			   n)`, `2`, ``},
			{`(defun make-counter ()
			   (let ((n 0))
			     (lambda () (setq n (+ n 1)))))`, `make-counter`, ``},
			{`(def c1 (make-counter))`, `c1`, ``},
			{`(def c2 (make-counter))`, `c2`, ``},
			{`(list (c1) (c1) (c2))`, `(1 2 1)`, ``},
			{`(defun adder (x) (lambda (y) (+ x y)))`, `adder`, ``},
			{`(map (adder 10) '(1 2 3))`, `(11 12 13)`, ``},
		}},
		{"shadowed special forms", kilntest.TestSequence{
			{`(let ((if (lambda () 5))) (if))`, `5`, ``},
			{`(let ((if 5)) (if))`, `type-error: not a function: 5`, ``},
			{`(let ((quote list)) (quote 1 2))`, `(1 2)`, ``},
		}},
		{"lambda lists", kilntest.TestSequence{
			{`(defun opt (a &optional (b 10)) (+ a b))`, `opt`, ``},
			{`(opt 1)`, `11`, ``},
			{`(opt 1 2)`, `3`, ``},
			{`(opt)`, `arity-error: opt: invalid number of arguments: 0 (expected at least 1)`, ``},
			{`(defun kw (&key (x 1) y) (list x y))`, `kw`, ``},
			{`(kw :y 2)`, `(1 2)`, ``},
			{`(kw :x 3 :y 4)`, `(3 4)`, ``},
			{`(kw :z 2)`, `arity-error: kw: unknown keyword argument: :z`, ``},
			{`(kw :x 1 :w 2 :a 3 :v 4)`, `arity-error: kw: unknown keyword argument: :w`, ``},
			{`(kw :x 1 :x 2)`, `(2 null)`, ``},
			{`(defun rest-args (a &rest xs) xs)`, `rest-args`, ``},
			{`(rest-args 1 2 3)`, `(2 3)`, ``},
			{`(rest-args 1)`, `null`, ``},
			{`(defun vec-args (&vector xs) xs)`, `vec-args`, ``},
			{`(vec-args 1 2)`, `[1 2]`, ``},
			{`(defun two (a b) b)`, `two`, ``},
			{`(two 1)`, `arity-error: two: invalid number of arguments: 1 (expected 2)`, ``},
			{`(lambda (&rest) 1)`, `compile-error: &rest requires a parameter: (&rest)`, ``},
		}},
		{"non-local return", kilntest.TestSequence{
			{`(defun f () (each (lambda (x) (if (= x 3) (return x))) (list 1 2 3 4)) -1)`, `f`, ``},
			{`(f)`, `-1`, ``},
			{`(defun size (xs) (if (> (length xs) 2) (return :big)) :small)`, `size`, ``},
			{`(size '(1 2 3))`, `:big`, ``},
			{`(size '(1))`, `:small`, ``},
		}},
		{"recur", kilntest.TestSequence{
			{`(defun count-down (n acc) (if (= n 0) acc (recur (- n 1) (+ acc 1))))`, `count-down`, ``},
			{`(count-down 20000 0)`, `20000`, ``},
		}},
		{"tagbody", kilntest.TestSequence{
			{`(let ((i 0) (out ()))
			   (tagbody
			     (goto check)
			    loop
			     (setq out (cons i out))
			     (setq i (+ i 1))
			    check
			     (if (< i 3) (goto loop)))
			   out)`, `(2 1 0)`, ``},
			{`(tagbody 1 (goto 1) 1)`, `compile-error: duplicate tagbody label: 1: (tagbody 1 (goto 1) 1)`, ``},
			{`(tagbody (goto nowhere))`, `compile-error: goto target not found: nowhere: (goto nowhere)`, ``},
			{`(tagbody top (funcall (lambda () (goto top))))`, `compile-error: goto target not found: top: (goto top)`, ``},
		}},
		{"file scope return", kilntest.TestSequence{
			{`(return 10)`, `10`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestErrors(t *testing.T) {
	tests := kilntest.TestSuite{
		{"throw", kilntest.TestSequence{
			{`(throw :custom "msg")`, `custom: msg`, ``},
			{`(error "plain")`, `error: plain`, ``},
			{`(error :bad-input "value {}" 3)`, `bad-input: value {}`, ``},
			{`(+ 1 "a")`, `no-applicable-method: no suitable method found for + (Integer String)`, ``},
			{`(/ 1 0)`, `arithmetic-error: division by zero`, ``},
		}},
		{"catch", kilntest.TestSequence{
			{`(try (error :boom "bad" 42) (catch (e) (list (error-condition e) (error-message e) (error-data e))))`, `(:boom "bad" 42)`, ``},
			{`(try (throw "plain") (catch e (error-message e)))`, `"plain"`, ``},
			{`(try (+ 1 2) (catch (e) 0))`, `3`, ``},
			{`(try undefined-thing (catch (e) (error-condition e)))`, `:undefined-symbol`, ``},
			{`(try (throw (make-error :again "x")) (catch (e) (error-condition e)))`, `:again`, ``},
		}},
		{"finally", kilntest.TestSequence{
			{`(try (+ 1 2) (finally (println "cleanup")))`, `3`, "cleanup\n"},
			{`(try (error :boom "x") (finally (println "cleanup")))`, `boom: x`, "cleanup\n"},
			{`(try (error :boom "x") (catch (e) 1) (finally (error :cleanup "y")))`, `cleanup: y`, ``},
		}},
		{"dynamic restore", kilntest.TestSequence{
			{`(def $depth 0)`, `$depth`, ``},
			{`(def seen ())`, `seen`, ``},
			{`(try (let (($depth 1)) (error :boom "x")) (finally (setq seen $depth)))`, `boom: x`, ``},
			{`seen`, `0`, ``},
			{`(try (let (($depth 1)) (error :boom "x")) (catch (e) $depth))`, `0`, ``},
			{`(defun get-depth () $depth)`, `get-depth`, ``},
			{`(let (($depth 2)) (get-depth))`, `2`, ``},
			{`(get-depth)`, `0`, ``},
			{`$never-set`, `null`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestStrictMode(t *testing.T) {
	tests := kilntest.TestSuite{
		{"warnings", kilntest.TestSequence{
			{`$never-set`, `null`, "warning: possibly undefined dynamic variable: $never-set\n"},
			{`(defun later () (not-yet-defined 1))`, `later`, "warning: possibly undefined symbol: not-yet-defined\n"},
			{`(defun recursive (n) (if (= n 0) 0 (recursive (- n 1))))`, `recursive`, ``},
			{`(recursive 3)`, `0`, ``},
		}},
		{"declare", kilntest.TestSequence{
			{`(declare (strict off))`, `null`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests, lisp.WithStrict(true))
}

func TestMultiMethods(t *testing.T) {
	tests := kilntest.TestSuite{
		{"specificity", kilntest.TestSequence{
			{`(defmulti kind (x) "Classifies x.")`, `kind`, ``},
			{`(defmethod kind ((x Number)) "number")`, `kind`, ``},
			{`(defmethod kind ((x Integer)) "integer")`, `kind`, ``},
			{`(kind 1)`, `"integer"`, ``},
			{`(kind 1.5)`, `"number"`, ``},
			{`(kind "s")`, `no-applicable-method: no applicable method for kind (String)`, ``},
			{`(defmethod kind ((x (eql 0))) "zero")`, `kind`, ``},
			{`(kind 0)`, `"zero"`, ``},
			{`(kind 2)`, `"integer"`, ``},
			{`(defmethod kind (x) "object")`, `kind`, ``},
			{`(kind "s")`, `"object"`, ``},
			{`(defmethod kind ((x Integer)) "int")`, `kind`, ``},
			{`(kind 3)`, `"int"`, ``},
			{`(defmethod kind (x y) 1)`, `define-error: method of kind has 2 required parameters (expected 1)`, ``},
		}},
		{"implicit generic", kilntest.TestSequence{
			{`(defmethod area ((s Map)) (* (:w s) (:h s)))`, `area`, ``},
			{`(defmethod area ((s Vector)) (* (elt s 0) (elt s 0)))`, `area`, ``},
			{`(list (area {:w 2 :h 3}) (area [4]))`, `(6 16)`, ``},
			{`(area 1)`, `no-applicable-method: no applicable method for area (Integer)`, ``},
		}},
		{"multiple arguments", kilntest.TestSequence{
			{`(defmulti combine (a b))`, `combine`, ``},
			{`(defmethod combine ((a Integer) b) "int-any")`, `combine`, ``},
			{`(defmethod combine (a (b Integer)) "any-int")`, `combine`, ``},
			{`(combine 1 1)`, `"int-any"`, ``},
			{`(combine "a" 1)`, `"any-int"`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestMacros(t *testing.T) {
	tests := kilntest.TestSuite{
		{"quasiquote", kilntest.TestSequence{
			{"`(1 ,(+ 1 1) ,@(list 3 4))", `(1 2 3 4)`, ``},
			{"`[a ,(+ 1 1)]", `[a 2]`, ``},
			{"`(a `(b ,(c ,(+ 1 2))))", "(a `(b ,(c 3)))", ``},
			{"`(1 ,@2)", `type-error: unquote-splicing of a non-sequence: 2`, ``},
		}},
		{"defmacro", kilntest.TestSequence{
			{"(defmacro unless (c &rest body) `(if ,c null (do ,@body)))", `unless`, ``},
			{`(unless false 1 2)`, `2`, ``},
			{`(unless true 1 2)`, `null`, ``},
			{`(macroexpand-1 '(unless x y))`, `(if x null (do y))`, ``},
			{`(macroexpand-1 '(list 1))`, `(list 1)`, ``},
			{`(funcall unless true)`, `type-error: macro unless cannot be called as a function`, ``},
			{`(defmacro forever () '(forever))`, `forever`, ``},
			{`(forever)`, `compile-error: macro expansion depth exceeded maximum: 1000: (forever)`, ``},
		}},
		{"gensym", kilntest.TestSequence{
			{"(defmacro swap! (a b) (let ((tmp (gensym))) `(let ((,tmp ,a)) (setq ,a ,b) (setq ,b ,tmp))))", `swap!`, ``},
			{`(let ((x 1) (y 2)) (swap! x y) (list x y))`, `(2 1)`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestCollections(t *testing.T) {
	tests := kilntest.TestSuite{
		{"maps", kilntest.TestSequence{
			{`(def m {:a 1})`, `m`, ``},
			{`(:a m)`, `1`, ``},
			{`(:missing m 0)`, `0`, ``},
			{`(assoc! m :b 2)`, `{:a 1 :b 2}`, ``},
			{`(keys m)`, `(:a :b)`, ``},
			{`(values m)`, `(1 2)`, ``},
			{`(get m :c 0)`, `0`, ``},
			{`(has-key? m :b)`, `true`, ``},
			{`(. m a)`, `1`, ``},
			{`(set-member! m :a 10)`, `10`, ``},
			{`(:a m)`, `10`, ``},
			{`(length m)`, `2`, ``},
			{`(hash-map "x" 1 "y")`, `arity-error: odd number of arguments: 3`, ``},
		}},
		{"vectors", kilntest.TestSequence{
			{`(def v [1 2 3])`, `v`, ``},
			{`(elt v 1)`, `2`, ``},
			{`(set-elt! v 0 9)`, `9`, ``},
			{`v`, `[9 2 3]`, ``},
			{`(elt v 5)`, `index-error: index 5 out of range [0, 3)`, ``},
			{`(map (lambda (x) (* x 2)) v)`, `[18 4 6]`, ``},
			{`(append v 4)`, `[9 2 3 4]`, ``},
			{`(reverse v)`, `[3 2 9]`, ``},
		}},
		{"lists", kilntest.TestSequence{
			{`(cons 1 '(2))`, `(1 2)`, ``},
			{`(car '(1 2))`, `1`, ``},
			{`(cdr '(1))`, `null`, ``},
			{`(nth '(1 2 3) 2)`, `3`, ``},
			{`(filter (lambda (x) (> x 1)) '(1 2 3))`, `(2 3)`, ``},
			{`(reduce + 0 '(1 2 3))`, `6`, ``},
			{`(apply + 1 '(2 3))`, `6`, ``},
			{`(equal '(1 [2]) (list 1 (vector 2)))`, `true`, ``},
		}},
		{"strings", kilntest.TestSequence{
			{`(format-string "{} + {} = {}" 1 2 3)`, `"1 + 2 = 3"`, ``},
			{`(format-string "{}")`, `format-error: too many formatting directives for supplied values`, ``},
			{`(str "a" 1 :b)`, `"a1:b"`, ``},
			{`(print "a" 1)`, `null`, `a 1`},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestConcurrency(t *testing.T) {
	tests := kilntest.TestSuite{
		{"tasks", kilntest.TestSequence{
			{`(await (task (lambda () (+ 1 2))))`, `3`, ``},
			{`(await (task (lambda () (error :in-task "failed"))))`, `in-task: failed`, ``},
			{`(def $x 1)`, `$x`, ``},
			{`(let (($x 2)) (await (task (lambda () $x))))`, `2`, ``},
		}},
		{"generators", kilntest.TestSequence{
			{`(def g (generator (lambda () (yield 1) (yield 2))))`, `g`, ``},
			{`(resume g)`, `1`, ``},
			{`(resume g)`, `2`, ``},
			{`(generator-done? g)`, `true`, ``},
			{`(resume g)`, `generator-exhausted: generator has no more values`, ``},
			{`(yield 1)`, `control-error: yield outside of a generator`, ``},
			{`(def bad (generator (lambda () (yield 1) (error :gen "broken"))))`, `bad`, ``},
			{`(resume bad)`, `1`, ``},
			{`(generator-done? bad)`, `false`, ``},
			{`(resume bad)`, `gen: broken`, ``},
			{`(resume bad)`, `generator-exhausted: generator has no more values`, ``},
		}},
		{"parallel", kilntest.TestSequence{
			{`(parallel-map (lambda (x) (* x x)) '(1 2 3 4))`, `(1 4 9 16)`, ``},
			{`(parallel-map (lambda (x) (* x x)) [1 2])`, `[1 4]`, ``},
			{`(parallel-map (lambda (x) (if (> x 1) (error :bad (str x)) x)) '(1 2 3))`, `bad: 2`, ``},
			{`(parallel-each (lambda (x) x) '(1 2))`, `null`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests, lisp.WithParallelism(2))
}

func TestEnvironment(t *testing.T) {
	tests := kilntest.TestSuite{
		{"the-environment", kilntest.TestSequence{
			{`(let ((a 1) (b 2)) (eval '(+ a b) (the-environment)))`, `3`, ``},
			{`(environment-bindings (let ((a 1)) (let ((b 2)) (the-environment))))`, `{b 2 a 1}`, ``},
			{`(eval '(+ 1 2))`, `3`, ``},
			{`(eval '(return 1))`, `compile-error: return outside of a function: (return 1)`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests)
}

func TestConstantFolding(t *testing.T) {
	tests := kilntest.TestSuite{
		{"folded calls", kilntest.TestSequence{
			{`(defun five () (+ 2 3))`, `five`, ``},
			{`(five)`, `5`, ``},
			{`(car (list 1 2))`, `1`, ``},
		}},
		{"fresh containers", kilntest.TestSequence{
			{`(defun fresh () (let ((l (list 1 2))) (set-elt! l 0 (+ (car l) 1)) l))`, `fresh`, ``},
			{`(fresh)`, `(2 2)`, ``},
			{`(fresh)`, `(2 2)`, ``},
			{`(defun pair () (cons 1 (list 2)))`, `pair`, ``},
			{`(set-elt! (pair) 0 9)`, `9`, ``},
			{`(pair)`, `(1 2)`, ``},
		}},
	}
	kilntest.RunTestSuite(t, tests, lisp.WithOptimize(true))
}
